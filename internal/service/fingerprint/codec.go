package fingerprint

// Codec describes the request/response framing of the reader.
// The AS608 layout is not implemented; PlaceholderCodec stands in for it.
type Codec interface {
	// CaptureRequest is the command written on every poll.
	CaptureRequest() []byte
	// ResponseSize is the fixed length of a reply.
	ResponseSize() int
	// Match inspects a reply and returns the identified person on success.
	Match(response []byte) (string, bool)
}

const (
	placeholderResponseSize = 12
	placeholderStatusOffset = 9
	statusOK                = 0x00
)

// PlaceholderCodec sends a fixed capture command and treats a zero status
// byte as a successful identification of a single configured identity.
// It does not validate against enrolled templates.
type PlaceholderCodec struct {
	Identity string
}

func (c PlaceholderCodec) CaptureRequest() []byte {
	return []byte{0xEF, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x00, 0x03, 0x01, 0x00, 0x05}
}

func (c PlaceholderCodec) ResponseSize() int {
	return placeholderResponseSize
}

func (c PlaceholderCodec) Match(response []byte) (string, bool) {
	if len(response) < placeholderResponseSize || response[placeholderStatusOffset] != statusOK {
		return "", false
	}
	return c.Identity, true
}
