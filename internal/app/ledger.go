package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"koerperwerte/internal/domain"
)

// Ledger owns the measurement records of each group and enforces one record
// per person per day.
type Ledger struct {
	repo   domain.MeasurementRepository
	locker domain.GroupLocker
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
	seed   bool
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock sets the time source used for creation timestamps and "today".
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the location in which "today" is determined.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) { l.loc = loc }
}

// WithSeeding makes ListAll seed a zero-weight record for the viewer when a
// group has no records yet.
func WithSeeding(enabled bool) LedgerOption {
	return func(l *Ledger) { l.seed = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a Ledger backed by repo. Writes to a group are serialized
// through locker.
func NewLedger(repo domain.MeasurementRepository, locker domain.GroupLocker, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:   repo,
		locker: locker,
		logger: slog.Default(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current date in the ledger's location.
func (l *Ledger) Today() domain.Day {
	return domain.Today(l.now(), l.loc)
}

// Record parses the raw day and weight strings of a write request and upserts
// the measurement.
func (l *Ledger) Record(ctx context.Context, group string, person *domain.Person, day, weight string) (*domain.MeasurementRecord, error) {
	if person == nil || person.Identity == "" {
		return nil, domain.ErrNotAuthenticated
	}
	d, err := domain.ParseDay(day)
	if err != nil {
		return nil, err
	}
	w, err := domain.ParseWeight(weight)
	if err != nil {
		return nil, err
	}
	return l.Upsert(ctx, group, person, d, w)
}

// Upsert stores weight for (group, person, day). An existing record for the
// same person and day has its weight replaced; otherwise a new record is
// created.
func (l *Ledger) Upsert(ctx context.Context, group string, person *domain.Person, day domain.Day, weight int) (*domain.MeasurementRecord, error) {
	if person == nil || person.Identity == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if strings.TrimSpace(group) == "" {
		return nil, &domain.ValidationError{Field: "group", Reason: "must not be empty"}
	}
	if day.IsZero() {
		return nil, &domain.ValidationError{Field: "day", Reason: "must be set"}
	}
	if err := domain.CheckWeight(weight); err != nil {
		return nil, err
	}

	unlock, err := l.locker.Lock(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("lock group %q: %w", group, err)
	}
	defer unlock()

	existing, err := l.repo.FindMeasurement(ctx, group, person.Identity, day)
	if err != nil {
		return nil, fmt.Errorf("find measurement: %w", err)
	}
	if existing != nil {
		if err := l.repo.UpdateMeasurementWeight(ctx, group, existing.ID, weight); err != nil {
			return nil, fmt.Errorf("update measurement: %w", err)
		}
		existing.Weight = weight
		l.logger.DebugContext(ctx, "measurement updated",
			slog.String("group", group),
			slog.String("identity", person.Identity),
			slog.String("day", day.String()),
			slog.Int("weight", weight),
		)
		return existing, nil
	}

	now := l.now()
	rec, err := l.repo.CreateMeasurement(ctx, domain.MeasurementRecord{
		ID:        ulid.Make().String(),
		Group:     group,
		Person:    *person,
		Day:       day,
		Weight:    weight,
		CreatedAt: now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}
	l.logger.DebugContext(ctx, "measurement created",
		slog.String("group", group),
		slog.String("identity", person.Identity),
		slog.String("day", day.String()),
		slog.Int("weight", weight),
	)
	return rec, nil
}

// ListAll returns every record of the group ordered by day. With seeding
// enabled, an empty group gets a zero-weight record for today for the viewer
// before it is returned.
func (l *Ledger) ListAll(ctx context.Context, group string, viewer *domain.Person) ([]domain.MeasurementRecord, error) {
	records, err := l.repo.ListMeasurements(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	if len(records) > 0 || !l.seed || viewer == nil || viewer.Identity == "" {
		return records, nil
	}

	if _, err := l.Upsert(ctx, group, viewer, l.Today(), 0); err != nil {
		return nil, fmt.Errorf("seed group: %w", err)
	}
	l.logger.InfoContext(ctx, "seeded empty group", slog.String("group", group))

	// another viewer may have seeded concurrently
	records, err = l.repo.ListMeasurements(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return records, nil
}
