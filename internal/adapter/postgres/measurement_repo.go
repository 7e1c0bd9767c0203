package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"koerperwerte/internal/domain"
)

const measurementColumns = "id, group_name, identity, email, day, weight, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*domain.MeasurementRecord, error) {
	var r domain.MeasurementRecord
	if err := row.Scan(&r.ID, &r.Group, &r.Person.Identity, &r.Person.Email, &r.Day, &r.Weight, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// FindMeasurement returns the record for (group, identity, day) or nil.
func (d *DB) FindMeasurement(ctx context.Context, group, identity string, day domain.Day) (*domain.MeasurementRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE group_name = $1 AND identity = $2 AND day = $3;",
		group, identity, day,
	)
	r, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateMeasurement inserts rec, overwriting the weight of an existing record
// for the same person and day.
func (d *DB) CreateMeasurement(ctx context.Context, rec domain.MeasurementRecord) (*domain.MeasurementRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO measurements(`+measurementColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_name, identity, day) DO UPDATE SET weight = EXCLUDED.weight
		RETURNING `+measurementColumns+`;`,
		rec.ID, rec.Group, rec.Person.Identity, rec.Person.Email, rec.Day, rec.Weight, rec.CreatedAt.UTC(),
	)
	return scanMeasurement(row)
}

// UpdateMeasurementWeight sets the weight of one record.
func (d *DB) UpdateMeasurementWeight(ctx context.Context, group, id string, weight int) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE measurements SET weight = $1 WHERE group_name = $2 AND id = $3;",
		weight, group, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("measurement %s not found", id)
	}
	return nil
}

// ListMeasurements returns every record of the group ordered by day.
func (d *DB) ListMeasurements(ctx context.Context, group string) ([]domain.MeasurementRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE group_name = $1 ORDER BY day, id;", group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MeasurementRecord, 0)
	for rows.Next() {
		r, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
