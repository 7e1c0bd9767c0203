package domain

import (
	"context"
	"strings"
	"time"
)

// DefaultGroup is the group used when a request names none.
const DefaultGroup = "public_koerperwerte_group"

// ResolveGroup returns the trimmed name, falling back to fallback and then to
// DefaultGroup when it is blank.
func ResolveGroup(name, fallback string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return DefaultGroup
}

// Person is the identity a measurement is recorded for. Identity is the
// stable identifier issued by the identity provider; Email is for display.
type Person struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
}

// MeasurementRecord is one weight measurement of one person on one day
// within a group. Weight is in tenths of a unit.
type MeasurementRecord struct {
	ID        string    `json:"id"`
	Group     string    `json:"group"`
	Person    Person    `json:"person"`
	Day       Day       `json:"day"`
	Weight    int       `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeasurementRepository is the port for measurement persistence. Every
// operation is scoped to a group; ordering is only guaranteed within one.
type MeasurementRepository interface {
	// FindMeasurement returns the record for (group, identity, day) or nil.
	FindMeasurement(ctx context.Context, group, identity string, day Day) (*MeasurementRecord, error)
	// CreateMeasurement stores rec. If a record for the same
	// (group, identity, day) already exists its weight is overwritten and the
	// stored record is returned instead.
	CreateMeasurement(ctx context.Context, rec MeasurementRecord) (*MeasurementRecord, error)
	UpdateMeasurementWeight(ctx context.Context, group, id string, weight int) error
	// ListMeasurements returns all records of the group ordered by day, ties
	// in insertion order.
	ListMeasurements(ctx context.Context, group string) ([]MeasurementRecord, error)
}

// GroupLocker serializes writers of one group. The returned function
// releases the lock.
type GroupLocker interface {
	Lock(ctx context.Context, group string) (unlock func(), err error)
}
