package ui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/service/transport"
)

const noPendingStatus = "No hay registros pendientes"

var enrollPrompts = []string{
	"Coloque su dedo en el lector",
	"Retire y vuelva a colocar el dedo",
	"Procesando huella...",
}

type enrollResult struct {
	registrationID string
	success        bool
	message        string
}

// RegistrationScreen enrolls fingerprints for registrations the server has
// queued for this terminal.
type RegistrationScreen struct {
	nav        Navigator
	logger     *logger.Logger
	transport  transport.Client
	outbox     Outbox
	terminalID string
	reader     FingerprintReader
	stepDelays []time.Duration
	tasks      *TaskGroup
	stopOnce   sync.Once

	// render goroutine state
	loaded    bool
	pending   []dto.PendingRegistration
	enrolling bool

	fetched  Cell[dto.PendingRegistrations]
	enrolled Cell[enrollResult]
	status   Cell[string]

	enroll button
	back   button
}

func NewRegistrationScreen(deps Deps, nav Navigator) *RegistrationScreen {
	w, h := deps.Config.ScreenWidth, deps.Config.ScreenHeight
	s := &RegistrationScreen{
		nav:        nav,
		logger:     deps.Logger,
		transport:  deps.Transport,
		outbox:     deps.Outbox,
		terminalID: deps.Config.TerminalID,
		stepDelays: deps.Config.EnrollStepDelays,
		tasks:      NewTaskGroup(context.Background()),
		enroll:     button{rect: image.Rect(w/2+3, h-54, w-6, h-24), label: "Registrar huella", color: colorAccent},
		back:       button{rect: image.Rect(6, h-54, w/2-3, h-24), label: "Volver", color: colorPanel},
	}
	if deps.NewFingerprint != nil {
		s.reader = deps.NewFingerprint()
	}
	s.status.Store("Buscando registros pendientes...")

	s.tasks.Go(func(ctx context.Context) {
		ok, result := s.transport.CheckPendingRegistrations(ctx)
		if ctx.Err() != nil {
			return
		}
		if !ok {
			s.status.Store(result.Error)
		}
		s.fetched.Store(result)
	})
	return s
}

func (s *RegistrationScreen) Kind() ScreenKind { return ScreenRegistration }

// CanEnroll reports whether the enroll action is offered.
func (s *RegistrationScreen) CanEnroll() bool {
	return s.loaded && len(s.pending) > 0 && !s.enrolling && s.reader != nil
}

func (s *RegistrationScreen) HandleEvent(ev Event, _ time.Time) {
	switch ev.Kind {
	case EventKey:
		switch ev.Key {
		case KeyEnter, KeySpace:
			s.startEnroll()
		case KeyEscape:
			s.leave()
		}
	case EventTap:
		switch {
		case s.enroll.hit(ev.Pos):
			s.startEnroll()
		case s.back.hit(ev.Pos):
			s.leave()
		}
	}
}

func (s *RegistrationScreen) leave() {
	s.release()
	s.nav.Navigate(Route{Kind: ScreenMain})
}

func (s *RegistrationScreen) Update(time.Time) {
	if result, ok := s.fetched.Take(); ok {
		s.loaded = true
		s.pending = result.Registrations
		if result.Error == "" {
			if len(s.pending) == 0 {
				s.status.Store(noPendingStatus)
			} else {
				s.status.Store(fmt.Sprintf("%d registro(s) pendiente(s)", len(s.pending)))
			}
		}
	}

	if res, ok := s.enrolled.Take(); ok {
		s.enrolling = false
		s.status.Store(res.message)
		if len(s.pending) > 0 && s.pending[0].ID == res.registrationID {
			s.pending = s.pending[1:]
		}
	}
}

func (s *RegistrationScreen) startEnroll() {
	if !s.CanEnroll() {
		return
	}
	s.enrolling = true
	reg := s.pending[0]
	s.logger.Info("🖐️ Enrolling finger %d for cedula %s (registration %s)", reg.Finger(), reg.Cedula, reg.ID)

	s.tasks.Go(func(ctx context.Context) {
		s.runEnroll(ctx, reg)
	})
}

// runEnroll drives one enrollment attempt. The confirmation is sent exactly
// once whichever way the attempt ends, including a panic in the reader.
func (s *RegistrationScreen) runEnroll(ctx context.Context, reg dto.PendingRegistration) {
	success := false
	details := map[string]interface{}{"finger_id": reg.Finger()}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Enrollment panicked: %v", r)
			success = false
			details["error"] = fmt.Sprint(r)
		}
		s.confirm(ctx, reg, success, details)
	}()

	if err := s.reader.Connect(); err != nil {
		details["error"] = err.Error()
		return
	}

	for i, prompt := range enrollPrompts {
		s.status.Store(prompt)
		if !sleepContext(ctx, s.stepDelay(i)) {
			details["error"] = "cancelado"
			return
		}
	}

	if err := s.reader.RegisterFingerprint(ctx, reg.Finger()); err != nil {
		details["error"] = err.Error()
		return
	}
	success = true
}

func (s *RegistrationScreen) stepDelay(i int) time.Duration {
	if i < len(s.stepDelays) {
		return s.stepDelays[i]
	}
	return 0
}

// confirm reports the outcome to the server, or to the outbox when the
// screen is gone or the server cannot be reached.
func (s *RegistrationScreen) confirm(ctx context.Context, reg dto.PendingRegistration, success bool, details map[string]interface{}) {
	req := dto.ConfirmRequest{
		RegistrationID: reg.ID,
		TerminalID:     s.terminalID,
		Success:        success,
		Details:        details,
	}

	delivered := false
	if ctx.Err() == nil {
		ok, result := s.transport.ConfirmRegistration(ctx, req)
		delivered = ok
		if !ok {
			s.logger.Warning("Confirmation for %s not delivered: %s", reg.ID, result.Error)
		}
	}

	if !delivered {
		s.queue(req)
	}

	message := "Error en el registro de huella"
	if success {
		message = "Huella registrada correctamente"
		if !delivered {
			message = "Huella registrada, confirmación pendiente"
		}
	}
	s.enrolled.Store(enrollResult{registrationID: reg.ID, success: success, message: message})
}

func (s *RegistrationScreen) queue(req dto.ConfirmRequest) {
	if s.outbox == nil {
		s.logger.Error("Confirmation for %s lost: no record store", req.RegistrationID)
		return
	}
	if err := s.outbox.SaveConfirmation(req); err != nil {
		s.logger.Error("Error storing confirmation for %s: %v", req.RegistrationID, err)
	}
}

func (s *RegistrationScreen) Draw(dst *image.RGBA) {
	body := header(dst, "Registro de huella")

	y := body.Min.Y + 24
	if s.loaded && len(s.pending) > 0 {
		reg := s.pending[0]
		drawText(dst, "Cédula: "+reg.Cedula, body.Min.X+12, y, colorText)
		y += lineHeight
		if reg.Nombre != "" {
			drawText(dst, "Nombre: "+reg.Nombre, body.Min.X+12, y, colorText)
			y += lineHeight
		}
		drawText(dst, fmt.Sprintf("Dedo: %d", reg.Finger()), body.Min.X+12, y, colorMuted)
		y += lineHeight
		if len(s.pending) > 1 {
			drawText(dst, fmt.Sprintf("%d más en espera", len(s.pending)-1), body.Min.X+12, y, colorMuted)
		}
	}

	s.back.draw(dst, true)
	if s.loaded && len(s.pending) > 0 {
		s.enroll.draw(dst, s.CanEnroll())
	}
	footer(dst, s.status.Get(), colorText)
}

func (s *RegistrationScreen) Status() string { return s.status.Get() }

func (s *RegistrationScreen) release() {
	s.stopOnce.Do(func() {
		s.tasks.Close()
		if s.reader != nil {
			s.reader.Disconnect()
		}
	})
}

func (s *RegistrationScreen) Teardown() {
	s.release()
}

func (s *RegistrationScreen) screen() {}

// sleepContext waits for d or until ctx is done; it reports whether d elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
