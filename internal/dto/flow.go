package dto

// FlowType is the attendance direction chosen on the main screen.
type FlowType string

const (
	FlowCheckIn  FlowType = "entrada"
	FlowCheckOut FlowType = "salida"
)

// Title returns the capitalised label used in screen titles.
func (f FlowType) Title() string {
	switch f {
	case FlowCheckIn:
		return "Entrada"
	case FlowCheckOut:
		return "Salida"
	default:
		return string(f)
	}
}
