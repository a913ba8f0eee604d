package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kiosk/internal/model"
)

// ErrRecordNotFound is returned when no record has the requested id.
var ErrRecordNotFound = errors.New("record not found")

// RecordRepository implements repository.RecordRepository for SQLite.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new SQLite record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert appends rec, assigning an id and creation time when missing.
func (r *RecordRepository) Insert(rec *model.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO records (id, kind, cedula, payload, synchronized, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Kind), rec.Cedula, rec.Payload, rec.Synchronized, rec.Attempts, rec.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	return rec.ID, nil
}

// GetByID retrieves a single record.
func (r *RecordRepository) GetByID(id string) (*model.Record, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, kind, cedula, payload, synchronized, attempts, created_at
		FROM records WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// GetUnsynchronized returns up to limit pending records of kind, oldest first.
func (r *RecordRepository) GetUnsynchronized(kind model.RecordKind, limit int) ([]model.Record, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, kind, cedula, payload, synchronized, attempts, created_at
		FROM records WHERE synchronized = 0 AND kind = ?
		ORDER BY created_at ASC LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// CountUnsynchronized returns the number of records still waiting for sync.
func (r *RecordRepository) CountUnsynchronized() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM records WHERE synchronized = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// MarkSynchronized flags a record as delivered.
func (r *RecordRepository) MarkSynchronized(id string) error {
	return r.update(`UPDATE records SET synchronized = 1 WHERE id = ?`, id)
}

// IncrementAttempts records a failed delivery.
func (r *RecordRepository) IncrementAttempts(id string) error {
	return r.update(`UPDATE records SET attempts = attempts + 1 WHERE id = ?`, id)
}

func (r *RecordRepository) update(query, id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*model.Record, error) {
	var rec model.Record
	var kind string
	if err := s.Scan(&rec.ID, &kind, &rec.Cedula, &rec.Payload, &rec.Synchronized, &rec.Attempts, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = model.RecordKind(kind)
	return &rec, nil
}
