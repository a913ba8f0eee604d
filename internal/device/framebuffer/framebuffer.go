// Package framebuffer presents frames on a Linux framebuffer device.
package framebuffer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"kiosk/internal/apperr"
)

const (
	ioctlGetVarScreenInfo = 0x4600
	ioctlGetFixScreenInfo = 0x4602
)

var ErrUnsupportedDepth = errors.New("unsupported framebuffer depth")

type bitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// varScreenInfo mirrors struct fb_var_screeninfo.
type varScreenInfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp bitfield
	NonStd, Activate         uint32
	Height, Width            uint32
	AccelFlags, PixClock     uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HSyncLen, VSyncLen       uint32
	Sync, VMode, Rotate      uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}

// fixScreenInfo mirrors struct fb_fix_screeninfo.
type fixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// Format describes how pixels are packed in video memory.
type Format struct {
	BytesPerPixel int
	Stride        int
	Red           bitfield
	Green         bitfield
	Blue          bitfield
}

// RGB565 is the packing used by most small SPI panels.
func RGB565(width int) Format {
	return Format{
		BytesPerPixel: 2,
		Stride:        width * 2,
		Red:           bitfield{Offset: 11, Length: 5},
		Green:         bitfield{Offset: 5, Length: 6},
		Blue:          bitfield{Offset: 0, Length: 5},
	}
}

// Device is an mmapped framebuffer.
type Device struct {
	file   *os.File
	mem    []byte
	bounds image.Rectangle
	format Format
	mu     sync.Mutex
}

// Open maps the framebuffer at path.
func Open(path string) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrHardwareUnavailable, err)
	}

	var vinfo varScreenInfo
	var finfo fixScreenInfo
	if err := ioctl(file, ioctlGetVarScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: FBIOGET_VSCREENINFO: %v", apperr.ErrHardwareUnavailable, err)
	}
	if err := ioctl(file, ioctlGetFixScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: FBIOGET_FSCREENINFO: %v", apperr.ErrHardwareUnavailable, err)
	}

	bpp := int(vinfo.BitsPerPixel) / 8
	if bpp != 2 && bpp != 4 {
		file.Close()
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedDepth, vinfo.BitsPerPixel)
	}

	size := int(finfo.LineLength) * int(vinfo.YRes)
	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: mmap: %v", apperr.ErrHardwareUnavailable, err)
	}

	return &Device{
		file:   file,
		mem:    mem,
		bounds: image.Rect(0, 0, int(vinfo.XRes), int(vinfo.YRes)),
		format: Format{
			BytesPerPixel: bpp,
			Stride:        int(finfo.LineLength),
			Red:           vinfo.Red,
			Green:         vinfo.Green,
			Blue:          vinfo.Blue,
		},
	}, nil
}

func ioctl(file *os.File, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Bounds returns the panel resolution.
func (d *Device) Bounds() image.Rectangle {
	return d.bounds
}

// Present copies frame into video memory, clipped to the panel.
func (d *Device) Present(frame *image.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mem == nil {
		return os.ErrClosed
	}
	Encode(d.mem, d.bounds, d.format, frame)
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mem == nil {
		return nil
	}
	err := unix.Munmap(d.mem)
	d.mem = nil
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Encode packs src into dst using format, clipped to bounds.
func Encode(dst []byte, bounds image.Rectangle, format Format, src *image.RGBA) {
	r := bounds.Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * format.Stride
		for x := r.Min.X; x < r.Max.X; x++ {
			i := src.PixOffset(x, y)
			px := pack(format, src.Pix[i], src.Pix[i+1], src.Pix[i+2])

			o := row + x*format.BytesPerPixel
			if o+format.BytesPerPixel > len(dst) {
				return
			}
			for b := 0; b < format.BytesPerPixel; b++ {
				dst[o+b] = byte(px >> (8 * b))
			}
		}
	}
}

func pack(f Format, r, g, b uint8) uint32 {
	return channel(f.Red, r) | channel(f.Green, g) | channel(f.Blue, b)
}

func channel(field bitfield, v uint8) uint32 {
	if field.Length == 0 {
		return 0
	}
	return uint32(v>>(8-field.Length)) << field.Offset
}
