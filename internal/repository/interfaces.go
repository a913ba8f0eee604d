package repository

import (
	"kiosk/internal/model"
)

// RecordRepository defines the interface for the local record store.
type RecordRepository interface {
	// Create operations
	Insert(rec *model.Record) (string, error)

	// Read operations
	GetByID(id string) (*model.Record, error)
	GetUnsynchronized(kind model.RecordKind, limit int) ([]model.Record, error)
	CountUnsynchronized() (int, error)

	// Update operations
	MarkSynchronized(id string) error
	IncrementAttempts(id string) error
}
