package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"kiosk/internal/apperr"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

var (
	// ErrStartupTimeout is returned by Start when no frame is decoded in time.
	ErrStartupTimeout = fmt.Errorf("%w: no camera frame within startup window", apperr.ErrProtocolTimeout)
	// ErrNoFrame is returned by CaptureImage before the first frame arrives.
	ErrNoFrame = errors.New("no camera frame available")
)

const stopTimeout = 2 * time.Second

// Frame is a decoded camera image. Published frames are never modified.
type Frame struct {
	Width      int
	Height     int
	Image      *image.RGBA
	CapturedAt time.Time
}

// Source pumps an MJPEG stream into the latest decoded Frame.
type Source struct {
	producer       Producer
	codec          Codec
	logger         *logger.Logger
	startupTimeout time.Duration
	chunkSize      int

	mu      sync.Mutex // lifecycle
	started bool
	stream  io.ReadCloser
	done    chan struct{}

	frameMu sync.RWMutex
	frame   *Frame
	stopped bool   // publishing disabled once Stop begins
	gen     uint64 // bumped per Start so a lingering loop cannot publish

	running atomic.Bool
}

// NewSource creates a Source reading from producer.
func NewSource(producer Producer, codec Codec, config *config.Config, logger *logger.Logger) *Source {
	return &Source{
		producer:       producer,
		codec:          codec,
		logger:         logger,
		startupTimeout: config.CameraStartupTimeout,
		chunkSize:      config.CameraChunkSize,
	}
}

// Start launches the producer and decode loop, then waits for the first frame.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	stream, err := s.producer.Start()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: camera: %v", apperr.ErrHardwareUnavailable, err)
	}

	first := make(chan struct{})
	done := make(chan struct{})

	s.frameMu.Lock()
	s.frame = nil
	s.stopped = false
	s.gen++
	gen := s.gen
	s.frameMu.Unlock()

	s.started = true
	s.stream = stream
	s.done = done
	s.running.Store(true)
	go s.decodeLoop(stream, gen, first, done)
	s.mu.Unlock()

	s.logger.Info("📷 Camera started, waiting for first frame")

	timer := time.NewTimer(s.startupTimeout)
	defer timer.Stop()

	select {
	case <-first:
		return nil
	case <-done:
		select {
		case <-first:
			return nil
		default:
		}
		s.Stop()
		return fmt.Errorf("%w: camera stream ended before first frame", apperr.ErrHardwareUnavailable)
	case <-timer.C:
		s.Stop()
		return ErrStartupTimeout
	case <-ctx.Done():
		s.Stop()
		return ctx.Err()
	}
}

// decodeLoop reads chunks, extracts complete frames and publishes them.
// Corrupt frames are logged and skipped.
func (s *Source) decodeLoop(stream io.Reader, gen uint64, first, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	var splitter FrameSplitter
	buf := make([]byte, s.chunkSize)
	signalled := false

	for {
		n, err := stream.Read(buf)
		if n > 0 {
			splitter.Write(buf[:n])
			for {
				data, ok := splitter.Next()
				if !ok {
					break
				}

				img, decodeErr := s.codec.Decode(data)
				if decodeErr != nil {
					s.logger.Warning("Skipping camera frame (%d bytes): %v", len(data), decodeErr)
					continue
				}

				frame := &Frame{
					Width:      img.Bounds().Dx(),
					Height:     img.Bounds().Dy(),
					Image:      img,
					CapturedAt: time.Now(),
				}
				if !s.publish(frame, gen) {
					return
				}
				if !signalled {
					close(first)
					signalled = true
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !s.isStopped() {
				s.logger.Error("Camera stream read error: %v", err)
			}
			return
		}
	}
}

func (s *Source) publish(frame *Frame, gen uint64) bool {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.stopped || gen != s.gen {
		return false
	}
	s.frame = frame
	return true
}

func (s *Source) isStopped() bool {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.stopped
}

// GetFrame returns the latest frame or nil. It never waits on the decoder.
func (s *Source) GetFrame() *Frame {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.frame
}

// CaptureImage returns the current frame encoded as JPEG.
func (s *Source) CaptureImage() ([]byte, error) {
	frame := s.GetFrame()
	if frame == nil {
		return nil, ErrNoFrame
	}
	return s.codec.Encode(frame.Image)
}

// Running reports whether the decode loop is alive.
func (s *Source) Running() bool {
	return s.running.Load()
}

// Stop terminates the producer and waits for the decode loop to exit.
// It may be called repeatedly and from any goroutine.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false

	s.frameMu.Lock()
	s.stopped = true
	s.frame = nil
	s.frameMu.Unlock()

	if err := s.producer.Stop(); err != nil {
		s.logger.Warning("Camera producer stop: %v", err)
	}
	_ = s.stream.Close()

	select {
	case <-s.done:
	case <-time.After(stopTimeout):
		s.logger.Warning("Camera decode loop did not exit within %s", stopTimeout)
	}
	if err := s.producer.Wait(); err != nil {
		s.logger.Warning("Camera producer wait: %v", err)
	}

	s.stream = nil
	s.logger.Info("📷 Camera stopped")
}
