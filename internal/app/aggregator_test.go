package app_test

import (
	"errors"
	"testing"
	"time"

	"koerperwerte/internal/app"
	"koerperwerte/internal/domain"
)

func rec(p domain.Person, d domain.Day, w int) domain.MeasurementRecord {
	return domain.MeasurementRecord{Group: "g", Person: p, Day: d, Weight: w}
}

// Scenario A.
func TestNormalize_SingleRecord(t *testing.T) {
	rows, err := app.Normalize([]domain.MeasurementRecord{rec(p1, day1, 700)}, []string{"p1"}, domain.Day{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Day != day1 || rows[0].Weights["p1"] != 700 || len(rows[0].Weights) != 1 {
		t.Errorf("unexpected row %+v", rows[0])
	}
}

// Scenario B.
func TestNormalize_FillsGaps(t *testing.T) {
	records := []domain.MeasurementRecord{rec(p1, day1, 700), rec(p1, day3, 710)}
	rows, err := app.Normalize(records, []string{"p1"}, domain.Day{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := []struct {
		day    domain.Day
		weight int
	}{
		{day3, 710},
		{day2, 0},
		{day1, 700},
	}
	for i, w := range want {
		if rows[i].Day != w.day {
			t.Errorf("row %d: day %s, want %s", i, rows[i].Day, w.day)
		}
		got, ok := rows[i].Weights["p1"]
		if !ok || got != w.weight {
			t.Errorf("row %d: p1 = %d (present=%v), want %d", i, got, ok, w.weight)
		}
	}
}

// Scenario C.
func TestNormalize_SeveralPersonsSameDay(t *testing.T) {
	records := []domain.MeasurementRecord{rec(p1, day1, 700), rec(p2, day1, 600)}
	rows, err := app.Normalize(records, []string{"p1", "p2"}, domain.Day{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Weights["p1"] != 700 || rows[0].Weights["p2"] != 600 {
		t.Errorf("unexpected weights %v", rows[0].Weights)
	}
}

func TestNormalize_RowCountMatchesSpan(t *testing.T) {
	start := domain.NewDay(2023, time.December, 20)
	spans := []int{0, 1, 11, 40, 366}
	for _, span := range spans {
		end := start.AddDays(span)
		records := []domain.MeasurementRecord{rec(p1, end, 800), rec(p2, start, 600)}
		rows, err := app.Normalize(records, []string{"p1", "p2"}, domain.Day{})
		if err != nil {
			t.Fatal(err)
		}
		if want := start.DaysUntil(end) + 1; len(rows) != want {
			t.Errorf("span %d: got %d rows, want %d", span, len(rows), want)
		}
		if rows[0].Day != end || rows[len(rows)-1].Day != start {
			t.Errorf("span %d: rows run %s..%s, want %s..%s", span, rows[0].Day, rows[len(rows)-1].Day, end, start)
		}
	}
}

func TestNormalize_EveryRowHasEveryKnownIdentity(t *testing.T) {
	records := []domain.MeasurementRecord{
		rec(p1, day1, 700),
		rec(p2, day3, 600),
	}
	known := []string{"p1", "p2", "viewer"}
	rows, err := app.Normalize(records, known, domain.Day{})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		for _, id := range known {
			if _, ok := row.Weights[id]; !ok {
				t.Errorf("%s: missing identity %s", row.Day, id)
			}
		}
	}
	if rows[2].Weights["p2"] != 0 || rows[0].Weights["p1"] != 0 {
		t.Error("absent measurements must read 0")
	}
}

func TestNormalize_DescendingWithoutDuplicates(t *testing.T) {
	records := []domain.MeasurementRecord{
		rec(p1, day3, 1),
		rec(p1, day1, 2),
		rec(p2, day3, 3),
		rec(p2, day2, 4),
	}
	rows, _ := app.Normalize(records, []string{"p1", "p2"}, domain.Day{})
	for i := 1; i < len(rows); i++ {
		if !rows[i].Day.Before(rows[i-1].Day) {
			t.Fatalf("rows not strictly descending at %d: %s then %s", i, rows[i-1].Day, rows[i].Day)
		}
	}
}

func TestNormalize_LaterDuplicateWins(t *testing.T) {
	records := []domain.MeasurementRecord{rec(p1, day1, 700), rec(p1, day1, 690)}
	rows, _ := app.Normalize(records, []string{"p1"}, domain.Day{})
	if rows[0].Weights["p1"] != 690 {
		t.Errorf("expected later record to win, got %d", rows[0].Weights["p1"])
	}
}

func TestNormalize_UnorderedInput(t *testing.T) {
	records := []domain.MeasurementRecord{rec(p1, day3, 710), rec(p1, day1, 700)}
	rows, err := app.Normalize(records, []string{"p1"}, domain.Day{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Day != day3 || rows[2].Day != day1 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestNormalize_EmptyUsesFallback(t *testing.T) {
	rows, err := app.Normalize(nil, []string{"p1"}, day2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Day != day2 {
		t.Fatalf("expected one fallback row, got %+v", rows)
	}
	if w, ok := rows[0].Weights["p1"]; !ok || w != 0 {
		t.Errorf("expected p1 at 0, got %v", rows[0].Weights)
	}
}

func TestNormalize_EmptyWithoutFallback(t *testing.T) {
	_, err := app.Normalize(nil, nil, domain.Day{})
	if !errors.Is(err, domain.ErrEmptyLedger) {
		t.Fatalf("expected ErrEmptyLedger, got %v", err)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	records := []domain.MeasurementRecord{rec(p1, day3, 710), rec(p1, day1, 700)}
	_, _ = app.Normalize(records, []string{"p1"}, domain.Day{})
	if records[0].Day != day3 || records[1].Day != day1 {
		t.Fatal("input must not be reordered")
	}
}

func TestDayRow_WeightFor(t *testing.T) {
	row := app.DayRow{Day: day1, Weights: map[string]int{"p1": 700}}
	if row.WeightFor("p1") != 700 || row.WeightFor("nobody") != 0 {
		t.Errorf("unexpected WeightFor results")
	}
}
