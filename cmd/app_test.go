package cmd

import (
	"testing"
	"time"

	"github.com/paywatch/paywatch/internal/payperiod"
)

func TestReferenceDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	a := &app{loc: loc}

	got, err := a.referenceDate("2025-06-23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format("2006-01-02") != "2025-06-23" {
		t.Errorf("expected 2025-06-23, got %s", got.Format("2006-01-02"))
	}
	if got.Location() != loc {
		t.Errorf("expected business timezone, got %s", got.Location())
	}

	now, err := a.referenceDate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(now) > time.Minute {
		t.Errorf("empty flag should default to now, got %s", now)
	}

	if _, err := a.referenceDate("23.06.2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestPeriodID(t *testing.T) {
	if got := periodID(payperiod.Period{Number: 18}); got != "18" {
		t.Errorf("expected 18, got %s", got)
	}
	if got := periodID(payperiod.Period{Number: -2}); got != "-2" {
		t.Errorf("expected -2, got %s", got)
	}
}
