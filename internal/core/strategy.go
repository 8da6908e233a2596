package core

import (
	"fmt"
	"slices"
)

// StrategyKind selects how the data rows of a document are reconciled.
// The zero value means no header has been recognized.
type StrategyKind int

const (
	StrategyNone StrategyKind = iota
	StrategyNewCases
	StrategySettledCases
	StrategyReceivedDates
	StrategyDueDates
)

// StrategyInfo describes a strategy for listings.
type StrategyInfo struct {
	Kind      StrategyKind `json:"kind"`
	Label     string       `json:"label"`
	Signature []string     `json:"signature"`
}

// strategies is ordered by detection priority.
var strategies = []StrategyInfo{
	{
		Kind:      StrategyNewCases,
		Label:     "New cases",
		Signature: []string{"Aktenzeichen", "Kurzrubrum", "Status", "ER / K"},
	},
	{
		Kind:      StrategySettledCases,
		Label:     "Settled cases",
		Signature: []string{"Aktenzeichen", "Kurzrubrum", "Erledigt am"},
	},
	{
		Kind:      StrategyReceivedDates,
		Label:     "Received dates",
		Signature: []string{"Aktenzeichen", "Eingangsdatum"},
	},
	{
		Kind:      StrategyDueDates,
		Label:     "Due dates",
		Signature: []string{"Aktenzeichen", "Kurzrubrum", "Terminsart", "Termin"},
	},
}

var strategyNames = map[StrategyKind]string{
	StrategyNone:          "none",
	StrategyNewCases:      "new_cases",
	StrategySettledCases:  "settled_cases",
	StrategyReceivedDates: "received_dates",
	StrategyDueDates:      "due_dates",
}

// Strategies returns every known strategy in detection order.
func Strategies() []StrategyInfo {
	out := make([]StrategyInfo, len(strategies))
	for i, s := range strategies {
		s.Signature = slices.Clone(s.Signature)
		out[i] = s
	}
	return out
}

// Detect returns the first strategy whose header signature equals row
// exactly, cell for cell.
func Detect(row Row) (StrategyKind, bool) {
	for _, s := range strategies {
		if s.Kind.Matches(row) {
			return s.Kind, true
		}
	}
	return StrategyNone, false
}

func (k StrategyKind) info() (StrategyInfo, bool) {
	for _, s := range strategies {
		if s.Kind == k {
			return s, true
		}
	}
	return StrategyInfo{}, false
}

// Signature returns the header row that selects k.
func (k StrategyKind) Signature() []string {
	s, _ := k.info()
	return slices.Clone(s.Signature)
}

// Columns is the row width k processes. Rows of any other width are skipped.
func (k StrategyKind) Columns() int {
	s, _ := k.info()
	return len(s.Signature)
}

// Matches reports whether row is k's header.
func (k StrategyKind) Matches(row Row) bool {
	s, ok := k.info()
	return ok && slices.Equal([]string(row), s.Signature)
}

// Label returns a human-readable name.
func (k StrategyKind) Label() string {
	if s, ok := k.info(); ok {
		return s.Label
	}
	return "None"
}

func (k StrategyKind) String() string {
	if name, ok := strategyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(k))
}

// ParseStrategyKind is the inverse of String.
func ParseStrategyKind(s string) (StrategyKind, error) {
	for k, name := range strategyNames {
		if name == s {
			return k, nil
		}
	}
	return StrategyNone, fmt.Errorf("unknown strategy %q", s)
}

// MarshalText encodes the strategy name.
func (k StrategyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a strategy name.
func (k *StrategyKind) UnmarshalText(b []byte) error {
	v, err := ParseStrategyKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
