package core

import "fmt"

// OutcomeKind is the bucket a processed row lands in.
type OutcomeKind int

const (
	OutcomeImported OutcomeKind = iota + 1
	OutcomeSettled
	OutcomeUpdated
	OutcomeIgnored
	OutcomeUnknown
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeImported:
		return "imported"
	case OutcomeSettled:
		return "settled"
	case OutcomeUpdated:
		return "updated"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of reconciling one data row. Message is set only
// for OutcomeError.
type Outcome struct {
	Kind      OutcomeKind
	Reference Reference
	Message   string
}

// ErrNoRecognizableData is the message reported for documents without a
// known header row.
const ErrNoRecognizableData = "no recognizable data found in document"

// Report is the result of one import. Buckets list value-form references in
// processing order.
type Report struct {
	Strategy StrategyKind `json:"strategy"`
	Imported []string     `json:"imported"`
	Settled  []string     `json:"settled"`
	Updated  []string     `json:"updated"`
	Ignored  []string     `json:"ignored"`
	Unknown  []string     `json:"unknown"`
	Errors   []string     `json:"errors"`
}

// ReportCounts summarizes a report.
type ReportCounts struct {
	Imported int `json:"imported"`
	Settled  int `json:"settled"`
	Updated  int `json:"updated"`
	Ignored  int `json:"ignored"`
	Unknown  int `json:"unknown"`
	Errors   int `json:"errors"`
}

// Counts returns the size of each bucket.
func (r *Report) Counts() ReportCounts {
	return ReportCounts{
		Imported: len(r.Imported),
		Settled:  len(r.Settled),
		Updated:  len(r.Updated),
		Ignored:  len(r.Ignored),
		Unknown:  len(r.Unknown),
		Errors:   len(r.Errors),
	}
}

// Changed is the number of rows that modified the registry.
func (c ReportCounts) Changed() int {
	return c.Imported + c.Settled + c.Updated
}

// Total is the number of processed data rows.
func (c ReportCounts) Total() int {
	return c.Changed() + c.Ignored + c.Unknown + c.Errors
}

// aggregator accumulates outcomes for a single run.
type aggregator struct {
	report Report
}

func newAggregator() *aggregator {
	return &aggregator{report: Report{
		Imported: []string{},
		Settled:  []string{},
		Updated:  []string{},
		Ignored:  []string{},
		Unknown:  []string{},
		Errors:   []string{},
	}}
}

func (a *aggregator) setStrategy(k StrategyKind) {
	a.report.Strategy = k
}

func (a *aggregator) add(o Outcome) {
	ref := o.Reference.String()
	switch o.Kind {
	case OutcomeImported:
		a.report.Imported = append(a.report.Imported, ref)
	case OutcomeSettled:
		a.report.Settled = append(a.report.Settled, ref)
	case OutcomeUpdated:
		a.report.Updated = append(a.report.Updated, ref)
	case OutcomeIgnored:
		a.report.Ignored = append(a.report.Ignored, ref)
	case OutcomeUnknown:
		a.report.Unknown = append(a.report.Unknown, ref)
	case OutcomeError:
		a.report.Errors = append(a.report.Errors, o.Message)
	}
}

// finish returns the report. Without a detected strategy the buckets are
// dropped and a single synthetic error is reported.
func (a *aggregator) finish() *Report {
	if a.report.Strategy == StrategyNone {
		r := newAggregator().report
		r.Errors = []string{ErrNoRecognizableData}
		return &r
	}
	r := a.report
	return &r
}
