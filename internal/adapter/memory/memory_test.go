package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"koerperwerte/internal/domain"
)

func TestMeasurementRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	alice := domain.Person{Identity: "alice", Email: "alice@example.com"}
	day := domain.NewDay(2024, time.March, 1)

	// Nothing stored yet
	got, err := db.FindMeasurement(ctx, "g", "alice", day)
	if err != nil {
		t.Fatalf("FindMeasurement: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}

	created, err := db.CreateMeasurement(ctx, domain.MeasurementRecord{ID: "01", Group: "g", Person: alice, Day: day, Weight: 700})
	if err != nil {
		t.Fatalf("CreateMeasurement: %v", err)
	}
	if created.ID != "01" || created.Weight != 700 {
		t.Errorf("unexpected record %+v", created)
	}

	got, _ = db.FindMeasurement(ctx, "g", "alice", day)
	if got == nil || got.Weight != 700 {
		t.Fatalf("expected stored record, got %+v", got)
	}

	// Returned records are copies
	got.Weight = 1
	again, _ := db.FindMeasurement(ctx, "g", "alice", day)
	if again.Weight != 700 {
		t.Error("mutating a returned record must not change the store")
	}

	if err := db.UpdateMeasurementWeight(ctx, "g", "01", 710); err != nil {
		t.Fatalf("UpdateMeasurementWeight: %v", err)
	}
	got, _ = db.FindMeasurement(ctx, "g", "alice", day)
	if got.Weight != 710 {
		t.Errorf("expected 710, got %d", got.Weight)
	}

	if err := db.UpdateMeasurementWeight(ctx, "g", "missing", 1); err == nil {
		t.Error("expected error for unknown id")
	}

	// Other group sees nothing
	other, _ := db.ListMeasurements(ctx, "other")
	if len(other) != 0 {
		t.Error("expected 0 records for other group")
	}
}

func TestCreateMeasurement_ConflictOverwritesWeight(t *testing.T) {
	db := New()
	ctx := context.Background()
	alice := domain.Person{Identity: "alice", Email: "alice@example.com"}
	day := domain.NewDay(2024, time.March, 1)

	_, _ = db.CreateMeasurement(ctx, domain.MeasurementRecord{ID: "01", Group: "g", Person: alice, Day: day, Weight: 700})
	rec, err := db.CreateMeasurement(ctx, domain.MeasurementRecord{ID: "02", Group: "g", Person: alice, Day: day, Weight: 650})
	if err != nil {
		t.Fatalf("CreateMeasurement: %v", err)
	}
	if rec.ID != "01" || rec.Weight != 650 {
		t.Errorf("expected original id with new weight, got %+v", rec)
	}

	all, _ := db.ListMeasurements(ctx, "g")
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
}

func TestListMeasurements_OrderedByDayThenInsertion(t *testing.T) {
	db := New()
	ctx := context.Background()
	d1 := domain.NewDay(2024, time.March, 1)
	d2 := domain.NewDay(2024, time.March, 2)

	insert := []domain.MeasurementRecord{
		{ID: "a", Group: "g", Person: domain.Person{Identity: "x"}, Day: d2},
		{ID: "b", Group: "g", Person: domain.Person{Identity: "y"}, Day: d1},
		{ID: "c", Group: "g", Person: domain.Person{Identity: "z"}, Day: d2},
		{ID: "d", Group: "g", Person: domain.Person{Identity: "x"}, Day: d1},
	}
	for _, r := range insert {
		if _, err := db.CreateMeasurement(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListMeasurements(ctx, "g")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, all[i].ID, id)
		}
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	count, _ := db.Count(ctx)
	if count != 0 {
		t.Errorf("expected 0 users, got %d", count)
	}

	u, err := db.Create(ctx, "admin", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}

	if _, err := db.Create(ctx, "admin", "hash"); err == nil {
		t.Error("expected duplicate username error")
	}

	byName, _ := db.GetByUsername(ctx, "admin")
	if byName == nil || byName.ID != u.ID {
		t.Errorf("GetByUsername returned %+v", byName)
	}
	missing, _ := db.GetByUsername(ctx, "nobody")
	if missing != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	live := domain.Session{Token: "live", Identity: "local:admin", ExpiresAt: time.Now().Add(time.Hour)}
	stale := domain.Session{Token: "stale", Identity: "local:admin", ExpiresAt: time.Now().Add(-time.Hour)}
	_ = repo.Create(ctx, live)
	_ = repo.Create(ctx, stale)

	s, _ := repo.GetByToken(ctx, "live")
	if s == nil || s.Identity != "local:admin" || s.CreatedAt.IsZero() {
		t.Fatalf("unexpected session %+v", s)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatal(err)
	}
	if s, _ := repo.GetByToken(ctx, "stale"); s != nil {
		t.Error("expected stale session to be removed")
	}

	_ = repo.Delete(ctx, "live")
	if s, _ := repo.GetByToken(ctx, "live"); s != nil {
		t.Error("expected session to be deleted")
	}
}

func TestLocker_SerializesGroup(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "g")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("expected at most one holder, saw %d", maxInside)
	}
}

func TestLocker_GroupsAreIndependent(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock on another group must not block: %v", err)
	}
	unlockB()
}

func TestLocker_ContextCancel(t *testing.T) {
	l := NewLocker()
	unlock, _ := l.Lock(context.Background(), "g")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "g"); err == nil {
		t.Fatal("expected context error while group is held")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewLocker()
	unlock, _ := l.Lock(context.Background(), "g")
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := l.Lock(ctx, "g")
	if err != nil {
		t.Fatal(err)
	}
	again()
}
