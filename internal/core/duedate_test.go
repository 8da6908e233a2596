package core

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func TestPreparationDays(t *testing.T) {
	tests := []struct {
		typ    CaseType
		status CaseStatus
		want   int
	}{
		{CaseTypeSingle, StatusSession, 1},
		{CaseTypeSingle, StatusDecision, 2},
		{CaseTypeChamber, StatusSession, 7},
		{CaseTypeChamber, StatusDecision, 7},
		{"", StatusSession, 1},
		{"", StatusDecision, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, PreparationDays(tt.typ, tt.status))
		})
	}
}

func TestTodoDate(t *testing.T) {
	tests := []struct {
		name string
		due  civil.Date
		prep int
		want civil.Date
	}{
		{name: "saturday moves to friday", due: date(2024, 1, 15), prep: 2, want: date(2024, 1, 12)},
		{name: "friday unchanged", due: date(2024, 1, 19), prep: 7, want: date(2024, 1, 12)},
		{name: "sunday moves to friday", due: date(2024, 1, 15), prep: 1, want: date(2024, 1, 12)},
		{name: "weekday unchanged", due: date(2024, 1, 17), prep: 1, want: date(2024, 1, 16)},
		{name: "across month boundary", due: date(2024, 3, 2), prep: 7, want: date(2024, 2, 23)},
		{name: "across year boundary", due: date(2024, 1, 1), prep: 2, want: date(2023, 12, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TodoDate(tt.due, tt.prep))
		})
	}
}
