package model

import "time"

// RecordKind tells the sync worker how to replay a record.
type RecordKind string

const (
	// KindVerification is an audit entry of a face verification attempt.
	KindVerification RecordKind = "verification"
	// KindConfirmation is an enrollment outcome that must reach the server.
	KindConfirmation RecordKind = "confirmation"
)

// Record is one append-only entry in the local store.
type Record struct {
	ID           string     `json:"id"`
	Kind         RecordKind `json:"kind"`
	Cedula       string     `json:"cedula"`
	Payload      []byte     `json:"payload"`
	Synchronized bool       `json:"synchronized"`
	Attempts     int        `json:"attempts"`
	CreatedAt    time.Time  `json:"created_at"`
}
