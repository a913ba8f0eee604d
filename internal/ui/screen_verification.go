package ui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"kiosk/internal/dto"
	"kiosk/internal/logger"
)

const (
	maxCedulaDigits = 15
	minCedulaDigits = 5
	cursorBlink     = 500 * time.Millisecond
)

// VerificationScreen collects a cedula from the keypad or a fingerprint
// match, then hands over to the camera.
type VerificationScreen struct {
	nav      Navigator
	logger   *logger.Logger
	flow     dto.FlowType
	deadline *Deadline
	reader   FingerprintReader
	tasks    *TaskGroup
	stopOnce sync.Once

	cedula  []byte
	now     time.Time
	keys    []button
	back    button
	status  Cell[string]
	matched Cell[string]
}

func NewVerificationScreen(deps Deps, nav Navigator, flow dto.FlowType, now time.Time) *VerificationScreen {
	w, h := deps.Config.ScreenWidth, deps.Config.ScreenHeight
	s := &VerificationScreen{
		nav:      nav,
		logger:   deps.Logger,
		flow:     flow,
		deadline: NewDeadline(now, deps.Config.TimeoutVerification),
		tasks:    NewTaskGroup(context.Background()),
		now:      now,
		keys:     keypad(image.Rect(w/2, 30, w-6, h-24)),
		back:     button{rect: image.Rect(6, h-58, w/2-6, h-28), label: "Volver", color: colorPanel},
	}
	s.status.Store("Ingrese su cédula o coloque su dedo")

	if deps.NewFingerprint != nil {
		s.reader = deps.NewFingerprint()
		s.tasks.Go(s.scan)
	}
	return s
}

// scan opens the reader off the render goroutine; the match callback only
// writes a cell.
func (s *VerificationScreen) scan(ctx context.Context) {
	err := s.reader.StartScan(func(id string) {
		s.matched.Store(id)
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Warning("Fingerprint scan unavailable: %v", err)
		s.status.Store("Lector de huella no disponible, use el teclado")
	}
}

func (s *VerificationScreen) Kind() ScreenKind { return ScreenVerification }

func (s *VerificationScreen) HandleEvent(ev Event, now time.Time) {
	switch ev.Kind {
	case EventKey:
		s.deadline.Reset(now)
		s.press(ev.Key)
	case EventTap:
		s.deadline.Reset(now)
		if s.back.hit(ev.Pos) {
			s.press(KeyEscape)
			return
		}
		for _, b := range s.keys {
			if b.hit(ev.Pos) {
				s.press(keypadKey(b.label))
				return
			}
		}
	}
}

func (s *VerificationScreen) press(k Key) {
	switch {
	case k.Digit():
		if len(s.cedula) < maxCedulaDigits {
			s.cedula = append(s.cedula, byte(k))
		}
	case k == KeyBackspace:
		if len(s.cedula) > 0 {
			s.cedula = s.cedula[:len(s.cedula)-1]
		}
	case k == KeyEnter:
		if len(s.cedula) < minCedulaDigits {
			s.status.Store("La cédula debe tener al menos 5 dígitos")
			return
		}
		s.submit(string(s.cedula))
	case k == KeyEscape:
		s.stopScan()
		s.nav.Navigate(Route{Kind: ScreenMain})
	}
}

func (s *VerificationScreen) submit(cedula string) {
	s.stopScan()
	s.nav.Navigate(Route{Kind: ScreenCamera, Flow: s.flow, Cedula: cedula})
}

func (s *VerificationScreen) Update(now time.Time) {
	s.now = now

	if id, ok := s.matched.Take(); ok {
		s.logger.Info("🖐️ Fingerprint identified cedula %s", id)
		s.cedula = []byte(id)
		s.submit(id)
		return
	}

	if s.deadline.Expired(now) {
		s.logger.Info("Verification timed out, returning to main")
		s.stopScan()
		s.nav.Navigate(Route{Kind: ScreenMain})
	}
}

func (s *VerificationScreen) Draw(dst *image.RGBA) {
	body := header(dst, "Registro de "+s.flow.Title())

	field := image.Rect(body.Min.X+6, body.Min.Y+26, s.back.rect.Max.X, body.Min.Y+50)
	drawText(dst, "Cédula:", field.Min.X, field.Min.Y-6, colorMuted)
	fill(dst, field, colorPanel)

	text := string(s.cedula)
	if (s.now.UnixMilli()/cursorBlink.Milliseconds())%2 == 0 {
		text += "_"
	}
	drawText(dst, text, field.Min.X+4, field.Max.Y-7, colorText)

	left := int(s.deadline.Remaining(s.now).Seconds())
	drawText(dst, fmt.Sprintf("Tiempo restante: %ds", left), field.Min.X, field.Max.Y+16, colorMuted)

	for _, b := range s.keys {
		b.draw(dst, true)
	}
	s.back.draw(dst, true)
	footer(dst, s.status.Get(), colorText)
}

func (s *VerificationScreen) Status() string { return s.status.Get() }

// stopScan releases the reader once; later calls are no-ops.
func (s *VerificationScreen) stopScan() {
	s.stopOnce.Do(func() {
		s.tasks.Close()
		if s.reader != nil {
			s.reader.StopScan()
			s.reader.Disconnect()
		}
	})
}

func (s *VerificationScreen) Teardown() {
	s.stopScan()
}

func (s *VerificationScreen) screen() {}
