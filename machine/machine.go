// Package machine decodes stroke chords from a Gemini PR compatible
// serial device: six bytes per chord, the high bit of the first byte
// marks a complete frame, and the remaining 41 bits map positionally
// through a 42-entry keymap of canonical stroke characters.
package machine

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/notewio/moreover/stroke"
)

const (
	frameSize = 6

	// DefaultReadTimeout is the reference driver's fixed poll interval.
	// Machine does not apply it: a Read waits as long as the Port's own
	// Read does, and only a deadline-exceeded error from the Port makes
	// the loop re-check ctx and retry.
	DefaultReadTimeout = 50 * time.Millisecond

	// DefaultReconnectInterval is the fixed backoff between dial attempts
	// once the port reports a recoverable error.
	DefaultReconnectInterval = time.Second
)

// Port is the physical transport a Machine reads chord frames from.
type Port interface {
	io.Reader
	io.Closer
}

// Dialer reopens the transport, used to reconnect after a recoverable
// I/O error.
type Dialer func() (Port, error)

// Recoverable is implemented by errors that indicate the transport needs
// to be reopened rather than abandoned outright (e.g. a broken pipe).
type Recoverable interface {
	Recoverable() bool
}

func isRecoverable(err error) bool {
	if errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var r Recoverable
	if errors.As(err, &r) {
		return r.Recoverable()
	}
	return false
}

// Machine reads stroke chords from a Port, reconnecting via Dialer when
// the port reports a recoverable error.
type Machine struct {
	port   Port
	dial   Dialer
	keymap [42]rune

	// ReconnectInterval overrides DefaultReconnectInterval when non-zero.
	ReconnectInterval time.Duration
}

// New builds a Machine around an already-open port and the dialer used
// to reopen it on reconnect.
func New(port Port, dial Dialer, keymap [42]rune) *Machine {
	return &Machine{port: port, dial: dial, keymap: keymap}
}

// Close closes the underlying port.
func (m *Machine) Close() error {
	return m.port.Close()
}

func (m *Machine) reconnectInterval() time.Duration {
	if m.ReconnectInterval > 0 {
		return m.ReconnectInterval
	}
	return DefaultReconnectInterval
}

// Read blocks until a full chord frame arrives, decodes it into a
// stroke id, and returns it. status, if non-nil, receives an empty
// string when the port drops and the new status once it's reopened --
// callers typically wire this to a UI status line. A context
// cancellation aborts the read at the next opportunity.
func (m *Machine) Read(ctx context.Context, status chan<- string) (stroke.Stroke, error) {
	buf := make([]byte, frameSize)

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		_, err := io.ReadFull(m.port, buf)
		switch {
		case err == nil:
			if buf[0]&0b1000_0000 == 0 {
				continue
			}
			return decodeFrame(buf, &m.keymap), nil

		case errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
			// Benign: the read simply timed out, loop and retry.
			continue

		case isRecoverable(err):
			if status != nil {
				status <- ""
			}
			if err := m.reconnect(ctx, status); err != nil {
				return 0, err
			}

		default:
			return 0, err
		}
	}
}

// reconnect dials a fresh port every ReconnectInterval until it
// succeeds or ctx is cancelled.
func (m *Machine) reconnect(ctx context.Context, status chan<- string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		port, err := m.dial()
		if err == nil {
			m.port = port
			if status != nil {
				status <- "connected"
			}
			return nil
		}

		t := time.NewTimer(m.reconnectInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// decodeFrame folds the 41 data bits of a 6-byte Gemini PR frame through
// keymap into chord text, deduplicating repeated keys, and encodes the
// result as a stroke id.
func decodeFrame(buf []byte, keymap *[42]rune) stroke.Stroke {
	var chord []rune
	seen := make(map[rune]bool, len(keymap))

	for byteIdx, b := range buf {
		for i := 6; i >= 0; i-- {
			mask := byte(1 << uint(i))
			if b&mask == 0 {
				continue
			}
			index := 7*byteIdx + 6 - i
			key := keymap[index]
			if key == 0 || seen[key] {
				continue
			}
			seen[key] = true
			chord = append(chord, key)
		}
	}

	return stroke.Encode(string(chord))
}
