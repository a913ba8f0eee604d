package fingerprint

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Dialer opens the byte channel to the reader.
type Dialer func(port string, baudRate int) (io.ReadWriteCloser, error)

// SerialDialer opens a UART with a one second read timeout.
func SerialDialer(port string, baudRate int) (io.ReadWriteCloser, error) {
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	if err := conn.SetReadTimeout(time.Second); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", port, err)
	}
	return conn, nil
}
