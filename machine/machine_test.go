package machine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/notewio/moreover/stroke"
)

// testKeymap mirrors the 42-entry layout documented for the Gemini PR
// protocol: six bits of padding, then the steno key columns in bit
// order (right-hand keys in lowercase, as stroke.Order spells them),
// with trailing padding.
var testKeymap = [42]rune{
	0, 0, 0, 0, 0, 0,
	'S', 'S', 'T', 'K', 'P', 'W', 'H',
	'R', 'A', 'O', '*', '*', 'e', 'u',
	'f', 'r', 'p', 'b', 'l', 'g', 't', 's', 'd', 'z',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// frame builds a 6-byte Gemini PR chord frame with the terminator bit
// set on byte 0 and one bit set per requested keymap index.
func frame(indices ...int) []byte {
	buf := make([]byte, frameSize)
	buf[0] = 0b1000_0000
	for _, idx := range indices {
		byteIdx := idx / 7
		bitIdx := 6 - idx%7
		buf[byteIdx] |= 1 << uint(bitIdx)
	}
	return buf
}

// bufferPort is an in-memory Port backed by a byte buffer.
type bufferPort struct {
	mu     sync.Mutex
	r      *bytes.Reader
	closed bool
}

func newBufferPort(data []byte) *bufferPort {
	return &bufferPort{r: bytes.NewReader(data)}
}

func (p *bufferPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.r.Read(b)
}

func (p *bufferPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestDecodeFrameDecodesKnownChord(t *testing.T) {
	// index 8 = 'T', index 27 = 's' (the second, post-vowel S column).
	buf := frame(8, 27)
	got := decodeFrame(buf, &testKeymap)
	want := stroke.Encode("Ts")
	if got != want {
		t.Errorf("decodeFrame = %v, want %v", got, want)
	}
}

func TestDecodeFrameDedupesRepeatedKeys(t *testing.T) {
	// indices 6 and 7 both map to 'S'; only one should appear in the
	// resulting chord.
	buf := frame(6, 7, 8)
	got := decodeFrame(buf, &testKeymap)
	want := stroke.Encode("ST")
	if got != want {
		t.Errorf("decodeFrame = %v, want %v", got, want)
	}
}

func TestReadSkipsNonTerminalFrames(t *testing.T) {
	nonTerminal := make([]byte, frameSize) // byte[0] high bit unset
	terminal := frame(8)                   // 'T'

	data := append(append([]byte{}, nonTerminal...), terminal...)
	port := newBufferPort(data)
	m := New(port, nil, testKeymap)

	got, err := m.Read(context.Background(), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := stroke.Encode("T"); got != want {
		t.Errorf("Read = %v, want %v", got, want)
	}
}

func TestReadPropagatesFatalError(t *testing.T) {
	fatal := errors.New("boom")
	port := &erroringPort{err: fatal}
	m := New(port, nil, testKeymap)

	_, err := m.Read(context.Background(), nil)
	if !errors.Is(err, fatal) {
		t.Errorf("Read error = %v, want %v", err, fatal)
	}
}

type erroringPort struct{ err error }

func (p *erroringPort) Read([]byte) (int, error) { return 0, p.err }
func (p *erroringPort) Close() error             { return nil }

func TestReadReconnectsOnRecoverableError(t *testing.T) {
	terminal := frame(8) // 'T'
	firstPort := newBufferPort(nil)
	firstPort.closed = true // every read returns io.ErrClosedPipe

	secondPort := newBufferPort(terminal)

	var dialed int
	dial := func() (Port, error) {
		dialed++
		return secondPort, nil
	}

	m := New(firstPort, dial, testKeymap)
	m.ReconnectInterval = time.Millisecond

	status := make(chan string, 2)
	got, err := m.Read(context.Background(), status)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := stroke.Encode("T"); got != want {
		t.Errorf("Read = %v, want %v", got, want)
	}
	if dialed != 1 {
		t.Errorf("dial called %d times, want 1", dialed)
	}

	close(status)
	var statuses []string
	for s := range status {
		statuses = append(statuses, s)
	}
	if len(statuses) != 2 || statuses[0] != "" || statuses[1] != "connected" {
		t.Errorf("status sequence = %v, want [\"\" \"connected\"]", statuses)
	}
}

func TestReadReturnsContextErrorOnCancellation(t *testing.T) {
	port := &blockingPort{}
	m := New(port, nil, testKeymap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Read(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Read error = %v, want context.Canceled", err)
	}
}

type blockingPort struct{}

func (p *blockingPort) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }
func (p *blockingPort) Close() error             { return nil }
