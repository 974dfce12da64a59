// Package link contains ManipulatorLink implementations: a serial link to a
// manipulator controller and an in-memory simulated rig.
package link

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is the byte stream a SerialLink talks over. Native serial ports,
// pipes and sockets all satisfy it.
type Port interface {
	io.ReadWriteCloser
}

// PortConfig holds serial port configuration.
type PortConfig struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// ReadTimeout of 0 blocks until data arrives. The link's reader
	// goroutine expects blocking reads.
	ReadTimeout time.Duration
}

// DefaultPortConfig returns a configuration for the given device.
func DefaultPortConfig(device string) *PortConfig {
	return &PortConfig{
		Device: device,
		Baud:   115200,
	}
}

// OpenSerial opens a native serial port.
func OpenSerial(cfg *PortConfig) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return port, nil
}
