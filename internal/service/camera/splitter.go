package camera

import "bytes"

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// FrameSplitter reassembles complete JPEG frames from an MJPEG byte stream.
//
// Bytes ahead of a start marker are discarded, extracted frames are cut from
// the head of the buffer, and scanning for the end marker resumes where the
// previous scan stopped, so nothing before the last frame end is scanned twice.
type FrameSplitter struct {
	buf      []byte
	scanFrom int // offset within buf where the footer search resumes
}

// Write appends a chunk read from the stream.
func (s *FrameSplitter) Write(p []byte) {
	s.buf = append(s.buf, p...)
}

// Next returns the next complete frame, or false if more bytes are needed.
// The returned slice is owned by the caller.
func (s *FrameSplitter) Next() ([]byte, bool) {
	if s.scanFrom == 0 {
		start := bytes.Index(s.buf, jpegHeader)
		if start == -1 {
			s.dropGarbage()
			return nil, false
		}
		if start > 0 {
			s.buf = s.compact(s.buf[start:])
		}
		s.scanFrom = len(jpegHeader)
	}

	end := bytes.Index(s.buf[s.scanFrom:], jpegFooter)
	if end == -1 {
		// Keep one byte of overlap in case the footer is split across chunks.
		if len(s.buf) > len(jpegHeader) {
			s.scanFrom = len(s.buf) - 1
		}
		return nil, false
	}

	frameEnd := s.scanFrom + end + len(jpegFooter)
	frame := make([]byte, frameEnd)
	copy(frame, s.buf[:frameEnd])

	s.buf = s.compact(s.buf[frameEnd:])
	s.scanFrom = 0
	return frame, true
}

// dropGarbage discards bytes that cannot start a frame, keeping a trailing
// 0xFF that may be the first half of a header.
func (s *FrameSplitter) dropGarbage() {
	if n := len(s.buf); n > 0 && s.buf[n-1] == jpegHeader[0] {
		s.buf = s.compact(s.buf[n-1:])
		return
	}
	s.buf = s.buf[:0]
}

// compact moves the tail to the front so the backing array does not grow
// without bound under continuous consumption.
func (s *FrameSplitter) compact(rest []byte) []byte {
	n := copy(s.buf, rest)
	return s.buf[:n]
}

// Buffered returns the bytes currently held.
func (s *FrameSplitter) Buffered() []byte {
	return s.buf
}

// Reset drops all buffered bytes.
func (s *FrameSplitter) Reset() {
	s.buf = nil
	s.scanFrom = 0
}
