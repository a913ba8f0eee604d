package camera

import (
	"bytes"
	"fmt"
	"testing"
)

func jpegFrame(payload string) []byte {
	out := append([]byte{}, jpegHeader...)
	out = append(out, payload...)
	return append(out, jpegFooter...)
}

func TestFrameSplitter_ExtractsFramesInOrder(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
	}{
		{"single write", 1 << 16},
		{"byte by byte", 1},
		{"odd chunks", 3},
		{"camera sized chunks", 4096},
	}

	var stream []byte
	var want [][]byte
	garbage := [][]byte{
		[]byte("noise"),
		{0x00, 0xFF, 0x00},
		{0xFF},
		{0xD9, 0xD9, 0x01},
		{},
	}
	for i := 0; i < 25; i++ {
		stream = append(stream, garbage[i%len(garbage)]...)
		frame := jpegFrame(fmt.Sprintf("frame-%02d", i))
		want = append(want, frame)
		stream = append(stream, frame...)
	}
	stream = append(stream, []byte("tail")...)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s FrameSplitter
			var got [][]byte

			for off := 0; off < len(stream); off += tt.chunkSize {
				end := off + tt.chunkSize
				if end > len(stream) {
					end = len(stream)
				}
				s.Write(stream[off:end])
				for {
					frame, ok := s.Next()
					if !ok {
						break
					}
					got = append(got, frame)
				}
			}

			if len(got) != len(want) {
				t.Fatalf("got %d frames, expected %d", len(got), len(want))
			}
			for i := range want {
				if !bytes.Equal(got[i], want[i]) {
					t.Errorf("frame %d = %q, expected %q", i, got[i], want[i])
				}
			}

			// Residual may only hold bytes that followed the last frame end.
			if !bytes.HasSuffix([]byte("tail"), s.Buffered()) {
				t.Errorf("residual %q is not a suffix of the trailing bytes", s.Buffered())
			}
		})
	}
}

func TestFrameSplitter_PartialFrameIsKept(t *testing.T) {
	var s FrameSplitter
	frame := jpegFrame("partial")

	s.Write(frame[:5])
	if _, ok := s.Next(); ok {
		t.Fatal("expected no frame from partial data")
	}
	s.Write(frame[5 : len(frame)-1])
	if _, ok := s.Next(); ok {
		t.Fatal("expected no frame before the footer completes")
	}
	s.Write(frame[len(frame)-1:])

	got, ok := s.Next()
	if !ok {
		t.Fatal("expected frame after footer")
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("got %q, expected %q", got, frame)
	}
	if len(s.Buffered()) != 0 {
		t.Errorf("expected empty buffer, got %d bytes", len(s.Buffered()))
	}
}

func TestFrameSplitter_GarbageDoesNotAccumulate(t *testing.T) {
	var s FrameSplitter
	for i := 0; i < 1000; i++ {
		s.Write(bytes.Repeat([]byte{0x42}, 512))
		if _, ok := s.Next(); ok {
			t.Fatal("unexpected frame in garbage")
		}
	}
	if len(s.Buffered()) != 0 {
		t.Errorf("expected garbage to be dropped, %d bytes buffered", len(s.Buffered()))
	}
}

func TestFrameSplitter_ReturnedFrameIsNotAliased(t *testing.T) {
	var s FrameSplitter
	s.Write(jpegFrame("one"))
	s.Write(jpegFrame("two"))

	first, _ := s.Next()
	snapshot := append([]byte{}, first...)
	if _, ok := s.Next(); !ok {
		t.Fatal("expected second frame")
	}
	s.Write(jpegFrame("three"))

	if !bytes.Equal(first, snapshot) {
		t.Errorf("first frame mutated to %q", first)
	}
}
