package app

import (
	"context"
	"fmt"

	"koerperwerte/internal/domain"
)

// CalendarService builds the dense per-day calendar of a group.
type CalendarService struct {
	ledger *Ledger
}

// NewCalendarService creates a CalendarService reading through ledger.
func NewCalendarService(ledger *Ledger) *CalendarService {
	return &CalendarService{ledger: ledger}
}

// Calendar is the display-ready view of a group.
type Calendar struct {
	Group   string          `json:"group"`
	Persons []domain.Person `json:"persons"`
	Days    []DayRow        `json:"days"`
}

// Emails returns the display emails of the calendar's persons in column order.
func (c *Calendar) Emails() []string {
	out := make([]string, 0, len(c.Persons))
	for _, p := range c.Persons {
		out = append(out, p.Email)
	}
	return out
}

// View returns the calendar of group as seen by viewer, newest day first.
// A viewer without any record in the group is added as a person and the
// calendar is extended to today so they have a row to fill in. viewer may be
// nil for anonymous reads.
func (s *CalendarService) View(ctx context.Context, group string, viewer *domain.Person) (*Calendar, error) {
	records, err := s.ledger.ListAll(ctx, group, viewer)
	if err != nil {
		return nil, err
	}

	persons := distinctPersons(records)
	today := s.ledger.Today()

	if viewer != nil && viewer.Identity != "" && !containsIdentity(persons, viewer.Identity) {
		persons = append(persons, *viewer)
		records = append(records, domain.MeasurementRecord{
			Group:  group,
			Person: *viewer,
			Day:    today,
		})
	}

	known := make([]string, 0, len(persons))
	for _, p := range persons {
		known = append(known, p.Identity)
	}

	days, err := Normalize(records, known, today)
	if err != nil {
		return nil, fmt.Errorf("normalize %q: %w", group, err)
	}
	return &Calendar{Group: group, Persons: persons, Days: days}, nil
}

func distinctPersons(records []domain.MeasurementRecord) []domain.Person {
	seen := make(map[string]bool)
	out := make([]domain.Person, 0)
	for _, rec := range records {
		if seen[rec.Person.Identity] {
			continue
		}
		seen[rec.Person.Identity] = true
		out = append(out, rec.Person)
	}
	return out
}

func containsIdentity(persons []domain.Person, identity string) bool {
	for _, p := range persons {
		if p.Identity == identity {
			return true
		}
	}
	return false
}
