package ui

import (
	"context"
	"image"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/service/camera"
	"kiosk/internal/service/face"
	"kiosk/internal/service/transport"
)

// ScreenKind names the closed set of screens the shell can install.
type ScreenKind int

const (
	ScreenMain ScreenKind = iota
	ScreenVerification
	ScreenCamera
	ScreenRegistration
	ScreenResult
)

func (k ScreenKind) String() string {
	switch k {
	case ScreenMain:
		return "main"
	case ScreenVerification:
		return "verification"
	case ScreenCamera:
		return "camera"
	case ScreenRegistration:
		return "registration"
	case ScreenResult:
		return "result"
	default:
		return "unknown"
	}
}

// Route describes the next screen and the data it is built from.
type Route struct {
	Kind    ScreenKind
	Flow    dto.FlowType
	Cedula  string
	Outcome dto.Outcome
}

// Screen is one state of the terminal. All methods run on the render
// goroutine. Teardown must cancel and join every background task the screen
// owns and release its hardware before returning.
type Screen interface {
	Kind() ScreenKind
	HandleEvent(ev Event, now time.Time)
	Update(now time.Time)
	Draw(dst *image.RGBA)
	Status() string
	Teardown()

	// screen seals the set to the variants in this package.
	screen()
}

// Navigator records a transition request; the shell applies it between phases.
type Navigator interface {
	Navigate(route Route)
}

// Camera is the frame source a Camera screen drives.
type Camera interface {
	Start(ctx context.Context) error
	GetFrame() *camera.Frame
	CaptureImage() ([]byte, error)
	Stop()
}

// FingerprintReader is the reader a Verification or Registration screen owns.
type FingerprintReader interface {
	Connect() error
	StartScan(onMatch func(id string)) error
	StopScan()
	Disconnect()
	RegisterFingerprint(ctx context.Context, fingerID int) error
}

// Outbox keeps records the server has not acknowledged.
type Outbox interface {
	SaveConfirmation(req dto.ConfirmRequest) error
	SaveVerification(outcome dto.Outcome) error
}

// Deps are the collaborators screens are built from. Hardware comes from
// factories so every screen owns a fresh handle.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Transport      transport.Client
	Locator        face.Locator
	Outbox         Outbox
	NewCamera      func() Camera
	NewFingerprint func() FingerprintReader
}
