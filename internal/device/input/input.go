// Package input turns evdev keypad and touchscreen events into ui events.
package input

import (
	"errors"
	"image"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/ui"
)

const eventBuffer = 64

var ErrNoDevices = errors.New("no input devices could be opened")

var keyMap = map[uint16]ui.Key{
	evdev.KEY_0: '0', evdev.KEY_1: '1', evdev.KEY_2: '2', evdev.KEY_3: '3', evdev.KEY_4: '4',
	evdev.KEY_5: '5', evdev.KEY_6: '6', evdev.KEY_7: '7', evdev.KEY_8: '8', evdev.KEY_9: '9',
	evdev.KEY_KP0: '0', evdev.KEY_KP1: '1', evdev.KEY_KP2: '2', evdev.KEY_KP3: '3', evdev.KEY_KP4: '4',
	evdev.KEY_KP5: '5', evdev.KEY_KP6: '6', evdev.KEY_KP7: '7', evdev.KEY_KP8: '8', evdev.KEY_KP9: '9',

	evdev.KEY_ENTER:     ui.KeyEnter,
	evdev.KEY_KPENTER:   ui.KeyEnter,
	evdev.KEY_BACKSPACE: ui.KeyBackspace,
	evdev.KEY_ESC:       ui.KeyEscape,
	evdev.KEY_SPACE:     ui.KeySpace,
}

// TranslateKey maps a key press to a ui event. F12 requests shutdown.
func TranslateKey(code uint16) (ui.Event, bool) {
	if code == evdev.KEY_F12 {
		return ui.Event{Kind: ui.EventQuit}, true
	}
	k, ok := keyMap[code]
	if !ok {
		return ui.Event{}, false
	}
	return ui.KeyEvent(k), true
}

// Touch scales raw touchscreen coordinates into screen pixels.
type Touch struct {
	Screen image.Point
	MaxX   int
	MaxY   int
}

func (t Touch) Map(x, y int32) image.Point {
	sx, sy := int(x), int(y)
	if t.MaxX > 0 {
		sx = sx * (t.Screen.X - 1) / t.MaxX
	}
	if t.MaxY > 0 {
		sy = sy * (t.Screen.Y - 1) / t.MaxY
	}
	return image.Pt(clamp(sx, 0, t.Screen.X-1), clamp(sy, 0, t.Screen.Y-1))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reader merges events from every configured device.
type Reader struct {
	events  chan ui.Event
	devices []*evdev.InputDevice
	touch   Touch
	logger  *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Open opens every device in config.InputDevices that exists. Devices that
// fail to open are logged and skipped.
func Open(config *config.Config, logger *logger.Logger) (*Reader, error) {
	r := &Reader{
		events: make(chan ui.Event, eventBuffer),
		touch: Touch{
			Screen: image.Pt(config.ScreenWidth, config.ScreenHeight),
			MaxX:   config.TouchMaxX,
			MaxY:   config.TouchMaxY,
		},
		logger: logger,
	}

	for _, path := range config.InputDevices {
		dev, err := evdev.Open(path)
		if err != nil {
			logger.Warning("Input device %s unavailable: %v", path, err)
			continue
		}
		logger.Info("⌨️ Input device %s (%s)", path, dev.Name)
		r.devices = append(r.devices, dev)
	}
	if len(r.devices) == 0 {
		return nil, ErrNoDevices
	}

	for _, dev := range r.devices {
		r.wg.Add(1)
		go r.readLoop(dev)
	}
	return r, nil
}

func (r *Reader) Events() <-chan ui.Event {
	return r.events
}

func (r *Reader) readLoop(dev *evdev.InputDevice) {
	defer r.wg.Done()

	var x, y int32
	for {
		batch, err := dev.Read()
		if err != nil {
			if !r.isClosed() {
				r.logger.Error("Input device %s failed: %v", dev.Fn, err)
			}
			return
		}

		for _, ev := range batch {
			switch ev.Type {
			case evdev.EV_ABS:
				switch ev.Code {
				case evdev.ABS_X, evdev.ABS_MT_POSITION_X:
					x = ev.Value
				case evdev.ABS_Y, evdev.ABS_MT_POSITION_Y:
					y = ev.Value
				}
			case evdev.EV_KEY:
				if ev.Code == evdev.BTN_TOUCH {
					// a tap lands where the finger lifts
					if ev.Value == 0 {
						r.emit(ui.Event{Kind: ui.EventTap, Pos: r.touch.Map(x, y)})
					}
					continue
				}
				if ev.Value != 1 {
					continue
				}
				if e, ok := TranslateKey(ev.Code); ok {
					r.emit(e)
				}
			}
		}
	}
}

// emit drops the event when the render loop is behind.
func (r *Reader) emit(ev ui.Event) {
	select {
	case r.events <- ev:
	default:
		r.logger.Warning("Input queue full, dropping event")
	}
}

func (r *Reader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Reader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var firstErr error
	for _, dev := range r.devices {
		if err := dev.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.wg.Wait()
	return firstErr
}
