package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kiosk/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "records.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRepository_InsertAndGet(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	rec := &model.Record{Kind: model.KindConfirmation, Cedula: "12345", Payload: []byte(`{"success":true}`)}
	id, err := repo.Insert(rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == "" || rec.ID != id {
		t.Fatalf("expected generated id, got %q", id)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Kind != model.KindConfirmation || got.Cedula != "12345" || string(got.Payload) != `{"success":true}` {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Synchronized || got.Attempts != 0 {
		t.Errorf("expected fresh record, got %+v", got)
	}

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordRepository_Unsynchronized(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))
	base := time.Now().Add(-time.Hour)

	for i, kind := range []model.RecordKind{model.KindConfirmation, model.KindVerification, model.KindConfirmation, model.KindConfirmation} {
		rec := &model.Record{ID: string(rune('a' + i)), Kind: kind, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := repo.Insert(rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if err := repo.MarkSynchronized("c"); err != nil {
		t.Fatalf("MarkSynchronized failed: %v", err)
	}

	pending, err := repo.GetUnsynchronized(model.KindConfirmation, 10)
	if err != nil {
		t.Fatalf("GetUnsynchronized failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "d" {
		t.Errorf("expected [a d] oldest first, got %+v", pending)
	}

	limited, err := repo.GetUnsynchronized(model.KindConfirmation, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d (%v)", len(limited), err)
	}

	count, err := repo.CountUnsynchronized()
	if err != nil || count != 3 {
		t.Errorf("expected 3 unsynchronized, got %d (%v)", count, err)
	}
}

func TestRecordRepository_IncrementAttempts(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	id, err := repo.Insert(&model.Record{Kind: model.KindConfirmation})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAttempts(id); err != nil {
			t.Fatalf("IncrementAttempts failed: %v", err)
		}
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", got.Attempts)
	}

	if err := repo.IncrementAttempts("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}
