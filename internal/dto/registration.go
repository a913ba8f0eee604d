package dto

// PendingRegistration is a server-initiated request to enroll a fingerprint
// at this terminal.
type PendingRegistration struct {
	ID       string `json:"id" validate:"required"`
	Cedula   string `json:"cedula" validate:"required"`
	FingerID int    `json:"finger_id" validate:"gte=0"`
	Nombre   string `json:"nombre,omitempty"`
}

// Finger returns the template slot, defaulting to 1 when the server omits it.
func (r PendingRegistration) Finger() int {
	if r.FingerID <= 0 {
		return 1
	}
	return r.FingerID
}

// PendingRegistrations is the payload of the pending-registrations call.
type PendingRegistrations struct {
	Registrations []PendingRegistration `json:"registrations"`
	Error         string                `json:"error,omitempty"`
}

// ConfirmRequest reports the enrollment outcome back to the server.
type ConfirmRequest struct {
	RegistrationID string                 `json:"registration_id"`
	TerminalID     string                 `json:"terminal_id"`
	Success        bool                   `json:"success"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

// ConfirmResult is the payload of the confirm-registration call.
type ConfirmResult struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
