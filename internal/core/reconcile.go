package core

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

// reconciler applies data rows to the registry for one run.
type reconciler struct {
	registry   CaseRegistry
	importDate civil.Date
}

// errRowFailed marks failures that are reported with the generic row message.
var errRowFailed = errors.New("failed to process row")

// process reconciles one data row. It never panics and never returns an
// error; every failure becomes an OutcomeError.
func (r *reconciler) process(ctx context.Context, kind StrategyKind, line int, row Row) (out Outcome, cause error) {
	defer func() {
		if p := recover(); p != nil {
			cause = fmt.Errorf("panic: %v", p)
			out = Outcome{Kind: OutcomeError, Message: rowMessage(line, row, cause)}
		}
	}()

	var err error
	switch kind {
	case StrategyNewCases:
		out, err = r.newCase(ctx, row)
	case StrategySettledCases:
		out, err = r.settledCase(ctx, row)
	case StrategyReceivedDates:
		out, err = r.receivedDate(ctx, row)
	case StrategyDueDates:
		out, err = r.dueDate(ctx, row)
	default:
		err = fmt.Errorf("no reconciler for %s", kind)
	}
	if err != nil {
		return Outcome{Kind: OutcomeError, Reference: out.Reference, Message: rowMessage(line, row, err)}, err
	}
	return out, nil
}

// rowMessage renders the report line for a failed row. Cell errors name the
// offending column; everything else gets the generic message.
func rowMessage(line int, row Row, err error) string {
	var cellErr *CellError
	if errors.As(err, &cellErr) {
		return fmt.Sprintf("row %d: %s", line, cellErr.Error())
	}
	return fmt.Sprintf("row %d: %s: %s", line, errRowFailed, row)
}

// lookup fetches the case for ref. A missing case is (nil, nil).
func (r *reconciler) lookup(ctx context.Context, ref Reference) (*Case, error) {
	c, err := r.registry.Get(ctx, ref)
	if errors.Is(err, ErrCaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", ref, err)
	}
	return c, nil
}

func (r *reconciler) update(ctx context.Context, c *Case, kind OutcomeKind) (Outcome, error) {
	if _, err := r.registry.Update(ctx, c); err != nil {
		return Outcome{Reference: c.Reference}, fmt.Errorf("update case %s: %w", c.Reference, err)
	}
	return Outcome{Kind: kind, Reference: c.Reference}, nil
}

// newCase creates unknown cases and refreshes the bench type of known ones.
// A settled case that shows up again is reopened.
func (r *reconciler) newCase(ctx context.Context, row Row) (Outcome, error) {
	ref, err := RequiredReference(row, 0)
	if err != nil {
		return Outcome{}, err
	}
	parties, _ := OptionalText(row, 1)
	typ, err := RequiredCaseType(row, 3)
	if err != nil {
		return Outcome{Reference: ref}, err
	}

	draft := CaseDraft{
		Reference:  ref,
		Type:       typ,
		Parties:    parties,
		Status:     StatusUnknown,
		ReceivedOn: r.importDate,
	}

	existing, err := r.lookup(ctx, ref)
	if err != nil {
		return Outcome{Reference: ref}, err
	}
	if existing == nil {
		if _, err := r.registry.Create(ctx, draft.NewCase()); err != nil {
			return Outcome{Reference: ref}, fmt.Errorf("create case %s: %w", ref, err)
		}
		return Outcome{Kind: OutcomeImported, Reference: ref}, nil
	}

	c := existing.Clone()
	changed := false
	if c.Type != draft.Type {
		c.Type = draft.Type
		changed = true
	}
	if c.Status == StatusSettled {
		c.Status = StatusUnknown
		changed = true
	}
	if !changed {
		return Outcome{Kind: OutcomeIgnored, Reference: ref}, nil
	}
	return r.update(ctx, c, OutcomeUpdated)
}

func (r *reconciler) settledCase(ctx context.Context, row Row) (Outcome, error) {
	ref, err := RequiredReference(row, 0)
	if err != nil {
		return Outcome{}, err
	}
	settledOn, err := RequiredDate(row, 2)
	if err != nil {
		return Outcome{Reference: ref}, err
	}

	existing, err := r.lookup(ctx, ref)
	if err != nil {
		return Outcome{Reference: ref}, err
	}
	if existing == nil {
		return Outcome{Kind: OutcomeUnknown, Reference: ref}, nil
	}

	c := existing.Clone()
	switch {
	case c.Status != StatusSettled:
		c.Status = StatusSettled
		c.SettledOn = settledOn
		return r.update(ctx, c, OutcomeSettled)
	case c.SettledOn != settledOn:
		c.SettledOn = settledOn
		return r.update(ctx, c, OutcomeUpdated)
	default:
		return Outcome{Kind: OutcomeIgnored, Reference: ref}, nil
	}
}

func (r *reconciler) receivedDate(ctx context.Context, row Row) (Outcome, error) {
	ref, err := RequiredReference(row, 0)
	if err != nil {
		return Outcome{}, err
	}
	receivedOn, err := RequiredDate(row, 1)
	if err != nil {
		return Outcome{Reference: ref}, err
	}

	existing, err := r.lookup(ctx, ref)
	if err != nil {
		return Outcome{Reference: ref}, err
	}
	if existing == nil {
		return Outcome{Kind: OutcomeUnknown, Reference: ref}, nil
	}
	if existing.ReceivedOn == receivedOn {
		return Outcome{Kind: OutcomeIgnored, Reference: ref}, nil
	}

	c := existing.Clone()
	c.ReceivedOn = receivedOn
	return r.update(ctx, c, OutcomeUpdated)
}

// dueDate records the next hearing and derives the todo date. Rows that
// repeat the stored hearing leave a manually adjusted todo date alone.
func (r *reconciler) dueDate(ctx context.Context, row Row) (Outcome, error) {
	ref, err := RequiredReference(row, 0)
	if err != nil {
		return Outcome{}, err
	}
	status, err := DueDateStatus(row, 2)
	if err != nil {
		return Outcome{Reference: ref}, err
	}
	due, err := RequiredDate(row, 3)
	if err != nil {
		return Outcome{Reference: ref}, err
	}

	existing, err := r.lookup(ctx, ref)
	if err != nil {
		return Outcome{Reference: ref}, err
	}
	if existing == nil {
		return Outcome{Kind: OutcomeUnknown, Reference: ref}, nil
	}
	if existing.DueDate == due && existing.Status == status {
		return Outcome{Kind: OutcomeIgnored, Reference: ref}, nil
	}

	c := existing.Clone()
	c.Status = status
	c.DueDate = due
	c.TodoDate = TodoDate(due, PreparationDays(c.Type, status))
	return r.update(ctx, c, OutcomeUpdated)
}
