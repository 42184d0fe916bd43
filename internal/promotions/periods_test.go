package promotions

import (
	"testing"
	"time"
)

func TestPeriodKeysAt(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	keys := PeriodKeysAt(at)

	if keys.Week != "2025-W11" {
		t.Fatalf("unexpected week key %s", keys.Week)
	}
	if keys.Month != "2025-3" {
		t.Fatalf("unexpected month key %s", keys.Month)
	}
	if keys.Year != "2025" {
		t.Fatalf("unexpected year key %s", keys.Year)
	}
}

func TestPeriodKeysISOWeekBoundary(t *testing.T) {
	// Jan 1st 2027 falls in ISO week 53 of 2026.
	at := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	keys := PeriodKeysAt(at)

	if keys.Week != "2026-W53" {
		t.Fatalf("unexpected boundary week key %s", keys.Week)
	}
	if keys.Year != "2027" {
		t.Fatalf("unexpected year key %s", keys.Year)
	}
}
