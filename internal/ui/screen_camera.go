package ui

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"kiosk/internal/apperr"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/service/face"
	"kiosk/internal/service/transport"
)

type captureResult struct {
	outcome dto.Outcome
	err     error
}

// CameraScreen starts the camera, captures a face and verifies it against
// the server. It owns the camera until Teardown.
type CameraScreen struct {
	nav       Navigator
	logger    *logger.Logger
	transport transport.Client
	locator   face.Locator
	outbox    Outbox
	camera    Camera
	tasks     *TaskGroup
	stopOnce  sync.Once

	cedula     string
	flow       dto.FlowType
	deadline   *Deadline
	faceDelay  time.Duration
	resultHold time.Duration

	// render goroutine state
	now       time.Time
	ready     bool
	failed    bool
	readyAt   time.Time
	capturing bool
	outcome   *dto.Outcome
	holdUntil time.Time
	faceRect  image.Rectangle

	started  Cell[error]
	captured Cell[captureResult]
	status   Cell[string]

	preview image.Rectangle
	capture button
	back    button
}

func NewCameraScreen(deps Deps, nav Navigator, cedula string, flow dto.FlowType, now time.Time) *CameraScreen {
	w, h := deps.Config.ScreenWidth, deps.Config.ScreenHeight
	s := &CameraScreen{
		nav:        nav,
		logger:     deps.Logger,
		transport:  deps.Transport,
		locator:    deps.Locator,
		outbox:     deps.Outbox,
		camera:     deps.NewCamera(),
		tasks:      NewTaskGroup(context.Background()),
		cedula:     cedula,
		flow:       flow,
		deadline:   NewDeadline(now, deps.Config.TimeoutFacial),
		faceDelay:  deps.Config.FaceDetectDelay,
		resultHold: deps.Config.ResultHoldDelay,
		now:        now,
		preview:    image.Rect(6, 28, w-6, h-58),
		capture:    button{rect: image.Rect(w/2+3, h-54, w-6, h-24), label: "Capturar", color: colorAccent},
		back:       button{rect: image.Rect(6, h-54, w/2-3, h-24), label: "Volver", color: colorPanel},
	}
	if s.locator == nil {
		s.locator = face.Always{}
	}
	s.status.Store("Iniciando cámara...")

	s.tasks.Go(func(ctx context.Context) {
		err := s.camera.Start(ctx)
		if ctx.Err() != nil {
			return
		}
		s.started.Store(err)
	})
	return s
}

func (s *CameraScreen) Kind() ScreenKind { return ScreenCamera }

func (s *CameraScreen) HandleEvent(ev Event, now time.Time) {
	s.deadline.Reset(now)

	switch ev.Kind {
	case EventKey:
		switch ev.Key {
		case KeySpace, KeyEnter:
			s.manualCapture()
		case KeyEscape:
			s.leave()
		}
	case EventTap:
		switch {
		case s.capture.hit(ev.Pos):
			s.manualCapture()
		case s.back.hit(ev.Pos):
			s.leave()
		}
	}
}

func (s *CameraScreen) canCapture() bool {
	return s.ready && !s.capturing && s.outcome == nil
}

func (s *CameraScreen) manualCapture() {
	if s.canCapture() {
		s.startCapture()
	}
}

func (s *CameraScreen) leave() {
	s.stopCamera()
	s.nav.Navigate(Route{Kind: ScreenVerification, Flow: s.flow})
}

func (s *CameraScreen) Update(now time.Time) {
	s.now = now

	if err, ok := s.started.Take(); ok {
		if err != nil {
			s.failed = true
			s.logger.Error("Camera start failed: %v", err)
			s.status.Store(apperr.Status(err))
		} else {
			s.ready = true
			s.readyAt = now
			s.status.Store("Mire a la cámara")
		}
	}

	if res, ok := s.captured.Take(); ok {
		s.capturing = false
		if res.err != nil {
			s.logger.Warning("Capture failed: %v", res.err)
			s.status.Store(apperr.Status(res.err))
		} else {
			outcome := res.outcome
			s.outcome = &outcome
			s.holdUntil = now.Add(s.resultHold)
			s.status.Store(outcomeStatus(outcome))
			s.stopCamera()
		}
	}

	if s.outcome != nil {
		if !now.Before(s.holdUntil) {
			s.nav.Navigate(Route{Kind: ScreenResult, Flow: s.flow, Cedula: s.cedula, Outcome: *s.outcome})
		}
		return
	}

	if s.deadline.Expired(now) {
		s.logger.Info("Face capture timed out for %s", s.cedula)
		s.leave()
		return
	}

	if s.canCapture() && now.Sub(s.readyAt) >= s.faceDelay {
		frame := s.camera.GetFrame()
		if frame == nil {
			return
		}
		if faces := s.locator.Locate(frame.Image); len(faces) > 0 {
			s.faceRect = faces[0]
			s.startCapture()
		}
	}
}

// startCapture encodes the current frame and verifies it off the render
// goroutine. At most one capture is in flight.
func (s *CameraScreen) startCapture() {
	s.capturing = true
	s.deadline.Reset(s.now)
	s.status.Store("Capturando...")

	s.tasks.Go(func(ctx context.Context) {
		img, err := s.camera.CaptureImage()
		if err != nil {
			s.captured.Store(captureResult{err: err})
			return
		}

		s.status.Store("Verificando identidad...")
		ok, result := s.transport.VerifyFace(ctx, s.cedula, s.flow, img)
		if ctx.Err() != nil {
			return
		}

		outcome := dto.Outcome{OK: ok, Result: result, Cedula: s.cedula, Flow: s.flow}
		if s.outbox != nil {
			if err := s.outbox.SaveVerification(outcome); err != nil {
				s.logger.Error("Error storing verification record: %v", err)
			}
		}
		s.captured.Store(captureResult{outcome: outcome})
	})
}

func outcomeStatus(o dto.Outcome) string {
	switch {
	case o.Passed():
		return "Verificación exitosa"
	case o.OK:
		if o.Result.Message != "" {
			return "No verificado: " + o.Result.Message
		}
		return "No verificado"
	default:
		return o.Result.Error
	}
}

func (s *CameraScreen) Draw(dst *image.RGBA) {
	header(dst, fmt.Sprintf("Verificación facial - %s", s.flow.Title()))
	fill(dst, s.preview, colorPanel)

	if frame := s.camera.GetFrame(); frame != nil && s.outcome == nil {
		target := drawImageFit(dst, s.preview, frame.Image)
		if !s.faceRect.Empty() {
			outline(dst, mapRect(s.faceRect, frame.Image.Bounds(), target), colorSuccess, 2)
		}
	} else {
		msg := "Iniciando cámara..."
		switch {
		case s.failed:
			msg = "Cámara no disponible"
		case s.outcome != nil:
			msg = "Procesando resultado..."
		}
		drawTextCentered(dst, msg, s.preview, s.preview.Min.Y+s.preview.Dy()/2, colorMuted)
	}

	s.back.draw(dst, true)
	s.capture.draw(dst, s.canCapture())

	c := colorText
	if s.failed {
		c = colorError
	}
	footer(dst, s.status.Get(), c)
}

func (s *CameraScreen) Status() string { return s.status.Get() }

func (s *CameraScreen) stopCamera() {
	s.stopOnce.Do(func() {
		s.tasks.Close()
		s.camera.Stop()
	})
}

func (s *CameraScreen) Teardown() {
	s.stopCamera()
}

func (s *CameraScreen) screen() {}
