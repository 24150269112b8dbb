package availability

import (
	"testing"
	"time"
)

// fixedNow pins "today" to Monday 2026-06-01 for deterministic tests.
func fixedNow() time.Time {
	return time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC)
}

func newTestCalculator() *Calculator {
	return NewCalculator([]int{15, 28}, fixedNow)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestSlotsForDateRules(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name          string
		date          string
		wantRemaining int
		wantBookable  bool
	}{
		{"past date closed", "2026-05-29", 0, false},
		{"sunday closed", "2026-06-07", 0, false},
		{"maintenance day 15 closed", "2026-06-15", 0, false},
		{"maintenance day 28 closed", "2026-06-28", 0, false},
		{"saturday reduced", "2026-06-06", 2, true},
		{"weekday baseline dom 1", "2026-06-01", 6, true},  // 5 + 1%3
		{"weekday baseline dom 2", "2026-06-02", 7, true},  // 5 + 2%3
		{"weekday baseline dom 3", "2026-06-03", 5, true},  // 5 + 3%3
		{"weekday baseline dom 10", "2026-06-10", 6, true}, // 5 + 10%3
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, bookable := calc.SlotsForDate(mustDate(t, tt.date))
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
			if bookable != tt.wantBookable {
				t.Errorf("bookable = %v, want %v", bookable, tt.wantBookable)
			}
		})
	}
}

func TestSlotsForDateDeterministic(t *testing.T) {
	calc := newTestCalculator()
	date := mustDate(t, "2026-06-10")

	r1, b1 := calc.SlotsForDate(date)
	r2, b2 := calc.SlotsForDate(date)
	if r1 != r2 || b1 != b2 {
		t.Errorf("repeat calls disagree: (%d,%v) vs (%d,%v)", r1, b1, r2, b2)
	}
}

func TestMaintenanceDayPrecedesSaturdayRule(t *testing.T) {
	// 2026-08-15 is a Saturday and a maintenance day; maintenance wins.
	calc := newTestCalculator()
	remaining, bookable := calc.SlotsForDate(mustDate(t, "2026-08-15"))
	if remaining != 0 || bookable {
		t.Errorf("got (%d,%v), want (0,false)", remaining, bookable)
	}
}

func TestTimeLabelsFixedAndCopied(t *testing.T) {
	calc := newTestCalculator()

	labels := calc.TimeLabels()
	if len(labels) != 7 {
		t.Fatalf("got %d labels, want 7", len(labels))
	}
	if labels[0] != "09:00" || labels[6] != "12:00" {
		t.Errorf("unexpected label bounds: %v", labels)
	}

	labels[0] = "mutated"
	if calc.TimeLabels()[0] != "09:00" {
		t.Error("TimeLabels must return a copy")
	}

	if !calc.HasTimeLabel("10:30") {
		t.Error("expected 10:30 to be canonical")
	}
	if calc.HasTimeLabel("23:00") {
		t.Error("expected 23:00 to be rejected")
	}
}

func TestMonthView(t *testing.T) {
	calc := newTestCalculator()

	days := calc.Month(2026, time.June)
	if len(days) != 30 {
		t.Fatalf("got %d days for June, want 30", len(days))
	}
	if days[0].Date != "2026-06-01" || days[29].Date != "2026-06-30" {
		t.Errorf("unexpected date bounds: %s .. %s", days[0].Date, days[29].Date)
	}

	for _, day := range days {
		if day.IsBookable != (day.RemainingSlots > 0) {
			t.Errorf("%s: bookable %v disagrees with remaining %d", day.Date, day.IsBookable, day.RemainingSlots)
		}
		if day.IsBookable && len(day.TimeLabels) != 7 {
			t.Errorf("%s: bookable day has %d labels, want 7", day.Date, len(day.TimeLabels))
		}
		if !day.IsBookable && len(day.TimeLabels) != 0 {
			t.Errorf("%s: closed day should carry no labels", day.Date)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("06/15/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("expected error for empty date")
	}
}
