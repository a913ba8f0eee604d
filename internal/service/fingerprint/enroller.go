package fingerprint

import (
	"context"
	"io"
)

// Enroller stores a new template under fingerID using an open connection.
type Enroller interface {
	Enroll(ctx context.Context, conn io.ReadWriter, fingerID int) error
}

// SimulatedEnroller reports success without talking to the device.
// TODO: replace with the AS608 GenImg/Img2Tz x2/RegModel/Store sequence.
type SimulatedEnroller struct{}

func (SimulatedEnroller) Enroll(ctx context.Context, _ io.ReadWriter, _ int) error {
	return ctx.Err()
}
