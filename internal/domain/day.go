package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the canonical textual form of a Day.
const DayLayout = "2006-01-02"

var dayLayouts = []string{DayLayout, "02.01.2006", "2006/01/02", time.RFC3339}

// Parsed days must fall within [MinYear, MaxYear].
const (
	MinYear = 1900
	MaxYear = 2999
)

const secondsPerDay = 24 * 60 * 60

// Day is a calendar date without a time component. The zero value is not a
// valid date; check it with IsZero.
type Day struct {
	t time.Time
}

// NewDay returns the Day for the given year, month and day of month.
// Out-of-range values are normalized the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return DayOf(now.In(loc))
}

// ParseDay accepts 2006-01-02, 02.01.2006, 2006/01/02 and RFC 3339
// timestamps. For timestamps the date in the timestamp's own offset is kept.
// Years outside [MinYear, MaxYear] are rejected.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, &ValidationError{Field: "day", Reason: "must not be empty"}
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return checkYear(DayOf(t))
		}
	}
	return Day{}, &ValidationError{Field: "day", Reason: fmt.Sprintf("cannot parse %q as a date", s)}
}

func checkYear(d Day) (Day, error) {
	if y := d.t.Year(); y < MinYear || y > MaxYear {
		return Day{}, &ValidationError{Field: "day", Reason: fmt.Sprintf("year %d outside %d-%d", y, MinYear, MaxYear)}
	}
	return d, nil
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.t.IsZero() }

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is earlier than o.
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

// After reports whether d is later than o.
func (d Day) After(o Day) bool { return d.t.After(o.t) }

// DaysUntil returns the number of calendar days from d to o. It is negative
// when o is before d.
func (d Day) DaysUntil(o Day) int {
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}

// MarshalJSON encodes d as "2006-01-02".
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes any form accepted by ParseDay.
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores d as its canonical text, which both PostgreSQL DATE columns
// and SQLite TEXT columns accept.
func (d Day) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a DATE, TIMESTAMP or text column.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DayOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	case nil:
		*d = Day{}
		return nil
	default:
		return fmt.Errorf("day: unsupported scan type %T", src)
	}
}

func (d *Day) scanText(s string) error {
	// drivers may hand back "2024-01-01T00:00:00Z" for DATE columns
	if len(s) > len(DayLayout) {
		s = s[:len(DayLayout)]
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return fmt.Errorf("day: %w", err)
	}
	*d = DayOf(t)
	return nil
}
