package dto

// VerifyResult is the payload of the face verification call.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Nombre   string `json:"nombre,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Outcome is what the Result screen displays.
type Outcome struct {
	OK     bool
	Result VerifyResult
	Cedula string
	Flow   FlowType
}

// Passed reports a transport success with a positive verification.
func (o Outcome) Passed() bool {
	return o.OK && o.Result.Verified
}
