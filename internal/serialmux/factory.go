package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout bounds each read on a real port so a silent receiver
// cannot block the monitor indefinitely.
const DefaultReadTimeout = 5 * time.Second

// NewRealSerialMux creates a SerialMux instance backed by a real serial port
// at the given path using the provided serial options. A read timeout is
// applied to the port so that a device producing no data surfaces as a
// monitor error rather than a hang.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, err
	}

	return NewSerialMux[serial.Port](port), nil
}
