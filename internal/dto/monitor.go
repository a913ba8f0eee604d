package dto

import "time"

// MonitorSnapshot is broadcast to maintenance viewers.
type MonitorSnapshot struct {
	Screen    string    `json:"screen"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
