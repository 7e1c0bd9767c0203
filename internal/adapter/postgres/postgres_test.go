package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koerperwerte/internal/domain"
)

var measurementCols = []string{"id", "group_name", "identity", "email", "day", "weight", "created_at"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, New(db)
}

func TestMigrate(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS measurements`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_measurements_group_day`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS sessions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS measurements`).WillReturnError(errors.New("permission denied"))

	err := repo.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
}

func TestFindMeasurement_Found(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(measurementCols).
		AddRow("01H", "g", "alice", "alice@example.com", "2024-03-01", 845, created)
	mock.ExpectQuery(`SELECT (.+) FROM measurements WHERE group_name = \$1 AND identity = \$2 AND day = \$3`).
		WithArgs("g", "alice", "2024-03-01").
		WillReturnRows(rows)

	rec, err := repo.FindMeasurement(context.Background(), "g", "alice", domain.NewDay(2024, time.March, 1))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "01H", rec.ID)
	assert.Equal(t, 845, rec.Weight)
	assert.Equal(t, domain.NewDay(2024, time.March, 1), rec.Day)
	assert.Equal(t, "alice@example.com", rec.Person.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMeasurement_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM measurements`).
		WillReturnRows(sqlmock.NewRows(measurementCols))

	rec, err := repo.FindMeasurement(context.Background(), "g", "alice", domain.NewDay(2024, time.March, 1))

	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMeasurement_Upserts(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	rec := domain.MeasurementRecord{
		ID:        "01NEW",
		Group:     "g",
		Person:    domain.Person{Identity: "alice", Email: "alice@example.com"},
		Day:       domain.NewDay(2024, time.March, 1),
		Weight:    700,
		CreatedAt: created,
	}
	// Conflict resolution keeps the stored id.
	rows := sqlmock.NewRows(measurementCols).
		AddRow("01OLD", "g", "alice", "alice@example.com", "2024-03-01", 700, created)
	mock.ExpectQuery(`INSERT INTO measurements(.+)ON CONFLICT \(group_name, identity, day\) DO UPDATE SET weight = EXCLUDED.weight`).
		WithArgs("01NEW", "g", "alice", "alice@example.com", "2024-03-01", 700, created).
		WillReturnRows(rows)

	got, err := repo.CreateMeasurement(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, "01OLD", got.ID)
	assert.Equal(t, 700, got.Weight)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeasurementWeight(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE measurements SET weight = \$1 WHERE group_name = \$2 AND id = \$3`).
		WithArgs(710, "g", "01H").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateMeasurementWeight(context.Background(), "g", "01H", 710))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeasurementWeight_Missing(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE measurements`).
		WithArgs(710, "g", "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMeasurementWeight(context.Background(), "g", "nope", 710)
	assert.Error(t, err)
}

func TestListMeasurements(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(measurementCols).
		AddRow("01A", "g", "alice", "alice@example.com", "2024-03-01", 700, created).
		AddRow("01B", "g", "bob", "bob@example.com", "2024-03-01", 800, created).
		AddRow("01C", "g", "alice", "alice@example.com", "2024-03-03", 690, created)
	mock.ExpectQuery(`SELECT (.+) FROM measurements WHERE group_name = \$1 ORDER BY day, id`).
		WithArgs("g").
		WillReturnRows(rows)

	recs, err := repo.ListMeasurements(context.Background(), "g")

	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "bob", recs[1].Person.Identity)
	assert.Equal(t, domain.NewDay(2024, time.March, 3), recs[2].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMeasurements_Empty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM measurements`).
		WithArgs("g").
		WillReturnRows(sqlmock.NewRows(measurementCols))

	recs, err := repo.ListMeasurements(context.Background(), "g")

	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Len(t, recs, 0)
}

func TestListMeasurements_QueryError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM measurements`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListMeasurements(context.Background(), "g")
	assert.Error(t, err)
}

func TestGetByUsername_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, created_at FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

	u, err := repo.GetByUsername(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()
	sessions := NewSessionRepo(repo)

	expires := time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	s := domain.Session{Token: "tok", Identity: "oidc:123", Email: "a@example.com", UserAgent: "curl", ExpiresAt: expires, CreatedAt: created}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("tok", "oidc:123", "a@example.com", "curl", expires, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT token, identity, email, user_agent, expires_at, created_at FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "identity", "email", "user_agent", "expires_at", "created_at"}).
			AddRow("tok", "oidc:123", "a@example.com", "curl", expires, created))

	require.NoError(t, sessions.Create(context.Background(), s))
	got, err := sessions.GetByToken(context.Background(), "tok")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.Person{Identity: "oidc:123", Email: "a@example.com"}, got.Person())
	assert.Equal(t, "curl", got.UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO users \(username, password_hash, created_at\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`).
		WithArgs("admin", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), created))

	u, err := repo.Create(context.Background(), "admin", "hash")

	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, "local:admin", u.Person().Identity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUsers(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnError(errors.New("connection reset"))
	_, err = repo.Count(context.Background())
	assert.Error(t, err)
}
