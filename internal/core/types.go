package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// CaseType is the composition of the bench handling a case.
type CaseType string

const (
	CaseTypeSingle  CaseType = "single"
	CaseTypeChamber CaseType = "chamber"
)

// Effective resolves an unset type to Single.
func (t CaseType) Effective() CaseType {
	if t == "" {
		return CaseTypeSingle
	}
	return t
}

// ParseCaseType parses a persisted case type. The empty string is unset.
func ParseCaseType(s string) (CaseType, error) {
	switch t := CaseType(s); t {
	case "", CaseTypeSingle, CaseTypeChamber:
		return t, nil
	default:
		return "", fmt.Errorf("unknown case type %q", s)
	}
}

// CaseStatus is where a case stands procedurally.
type CaseStatus string

const (
	StatusUnknown   CaseStatus = "unknown"
	StatusSession   CaseStatus = "session"
	StatusDecision  CaseStatus = "decision"
	StatusSettled   CaseStatus = "settled"
	StatusSuspended CaseStatus = "suspended"
)

// ParseCaseStatus parses a persisted status. The empty string maps to Unknown.
func ParseCaseStatus(s string) (CaseStatus, error) {
	switch st := CaseStatus(s); st {
	case "":
		return StatusUnknown, nil
	case StatusUnknown, StatusSession, StatusDecision, StatusSettled, StatusSuspended:
		return st, nil
	default:
		return "", fmt.Errorf("unknown case status %q", s)
	}
}

// Case is a registry record. Zero dates mean "not set".
type Case struct {
	ID         uuid.UUID
	Reference  Reference
	Type       CaseType
	Parties    string
	Status     CaseStatus
	StatusNote string
	ReceivedOn civil.Date
	SettledOn  civil.Date
	DueDate    civil.Date
	TodoDate   civil.Date
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a copy of c that can be mutated independently.
func (c *Case) Clone() *Case {
	cp := *c
	return &cp
}

// CaseDraft is what a single row says about a case. Fields a strategy does
// not read stay at their zero value and are never applied.
type CaseDraft struct {
	Reference  Reference
	Type       CaseType
	Parties    string
	Status     CaseStatus
	ReceivedOn civil.Date
	SettledOn  civil.Date
	DueDate    civil.Date
}

// NewCase materializes a draft as a fresh record.
func (d CaseDraft) NewCase() *Case {
	return &Case{
		ID:         uuid.New(),
		Reference:  d.Reference,
		Type:       d.Type,
		Parties:    d.Parties,
		Status:     d.Status,
		ReceivedOn: d.ReceivedOn,
		SettledOn:  d.SettledOn,
		DueDate:    d.DueDate,
	}
}

// ErrCaseNotFound is returned by a CaseRegistry when no case has the reference.
var ErrCaseNotFound = errors.New("case not found")

// CaseRegistry is the store the importer reconciles against. Lookups are by
// structured reference. Implementations handle field encryption themselves;
// the importer only ever sees plaintext.
type CaseRegistry interface {
	Get(ctx context.Context, ref Reference) (*Case, error)
	Create(ctx context.Context, c *Case) (*Case, error)
	Update(ctx context.Context, c *Case) (*Case, error)
}
