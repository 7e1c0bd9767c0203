package app

import (
	"koerperwerte/internal/domain"
)

// DayRow is one calendar date of a dense calendar with a weight for every
// known person. It is derived on every read and never stored.
type DayRow struct {
	Day     domain.Day     `json:"day"`
	Weights map[string]int `json:"weights"`
}

// WeightFor returns the weight recorded for identity, or 0.
func (r DayRow) WeightFor(identity string) int {
	return r.Weights[identity]
}

// Normalize expands records into one DayRow per calendar date between the
// earliest and latest recorded day, inclusive, newest first. Every identity
// in known is present in every row, defaulting to 0. When several records
// share a day and identity the later one in records wins.
//
// With no records the result is a single row for fallback; a zero fallback
// yields ErrEmptyLedger.
func Normalize(records []domain.MeasurementRecord, known []string, fallback domain.Day) ([]DayRow, error) {
	if len(records) == 0 {
		if fallback.IsZero() {
			return nil, domain.ErrEmptyLedger
		}
		return []DayRow{newDayRow(fallback, known)}, nil
	}

	byDay := make(map[domain.Day]map[string]int)
	start, end := records[0].Day, records[0].Day
	for _, rec := range records {
		entries, ok := byDay[rec.Day]
		if !ok {
			entries = make(map[string]int)
			byDay[rec.Day] = entries
		}
		entries[rec.Person.Identity] = rec.Weight

		if rec.Day.Before(start) {
			start = rec.Day
		}
		if rec.Day.After(end) {
			end = rec.Day
		}
	}

	n := start.DaysUntil(end) + 1
	rows := make([]DayRow, 0, n)
	for d := end; !d.Before(start); d = d.AddDays(-1) {
		row := newDayRow(d, known)
		for identity, weight := range byDay[d] {
			row.Weights[identity] = weight
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func newDayRow(d domain.Day, known []string) DayRow {
	weights := make(map[string]int, len(known))
	for _, identity := range known {
		weights[identity] = 0
	}
	return DayRow{Day: d, Weights: weights}
}
