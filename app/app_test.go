package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/notewio/moreover/engine"
	"github.com/notewio/moreover/format"
	"github.com/notewio/moreover/machine"
	"github.com/notewio/moreover/stroke"
)

// testKeymap mirrors the layout used by the machine package's own
// fixtures: six bits of padding, the steno key columns, then trailing
// padding.
var testKeymap = [42]rune{
	0, 0, 0, 0, 0, 0,
	'S', 'S', 'T', 'K', 'P', 'W', 'H',
	'R', 'A', 'O', '*', '*', 'e', 'u',
	'f', 'r', 'p', 'b', 'l', 'g', 't', 's', 'd', 'z',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func chordFrame(indices ...int) []byte {
	buf := make([]byte, 6)
	buf[0] = 0b1000_0000
	for _, idx := range indices {
		byteIdx := idx / 7
		bitIdx := 6 - idx%7
		buf[byteIdx] |= 1 << uint(bitIdx)
	}
	return buf
}

// scriptedPort serves a fixed list of 6-byte frames in order, then
// reports an indefinite read timeout, mimicking a serial port
// configured with a short read deadline once it has no more data.
type scriptedPort struct {
	frames [][]byte
	next   int
}

func (p *scriptedPort) Read(buf []byte) (int, error) {
	if p.next >= len(p.frames) {
		time.Sleep(2 * time.Millisecond)
		return 0, os.ErrDeadlineExceeded
	}
	f := p.frames[p.next]
	p.next++
	n := copy(buf, f)
	return n, nil
}

func (p *scriptedPort) Close() error { return nil }

// recordedOp is one call a fakeInjector observed, in the order
// Supervisor issued it.
type recordedOp struct {
	isDelete bool
	deletes  int
	action   format.Action
}

type fakeInjector struct {
	ops   []recordedOp
	ready chan struct{}
	want  int
}

func (f *fakeInjector) Delete(n int) error {
	f.ops = append(f.ops, recordedOp{isDelete: true, deletes: n})
	f.checkReady()
	return nil
}

func (f *fakeInjector) Send(a format.Action) error {
	f.ops = append(f.ops, recordedOp{action: a})
	f.checkReady()
	return nil
}

func (f *fakeInjector) checkReady() {
	if len(f.ops) == f.want {
		close(f.ready)
	}
}

// expectedOps replicates Supervisor.inject's translation from a
// (old, new) action diff into injector calls, so a reference engine run
// outside any goroutine can be compared against what the Supervisor's
// input goroutine actually produced.
func expectedOps(old, new []format.Action) []recordedOp {
	var ops []recordedOp
	deletes := 0
	for _, a := range old {
		if a.Kind == format.ActionText {
			deletes++
		} else {
			ops = append(ops, recordedOp{action: a})
		}
	}
	if deletes > 0 {
		ops = append(ops, recordedOp{isDelete: true, deletes: deletes})
	}
	for _, a := range new {
		ops = append(ops, recordedOp{action: a})
	}
	return ops
}

// TestSupervisorRunMatchesDirectProcessStroke drives three strokes with
// no dictionary entries of their own (so each falls back to the
// engine's literal numeric-stroke translation) through a real
// Supervisor reading a fake serial port, and checks that the sequence
// of Injector calls matches exactly what calling ProcessStroke
// directly, in this goroutine, against an identical fresh engine would
// produce. This is the goroutine-wiring test: it would fail if the
// input goroutine reordered or duplicated work relative to a direct
// call.
func TestSupervisorRunMatchesDirectProcessStroke(t *testing.T) {
	s1 := stroke.Encode("T")
	s2 := stroke.Encode("W")
	s3 := stroke.Encode("H")

	ref := engine.New()
	o1, n1 := ref.ProcessStroke(s1)
	o2, n2 := ref.ProcessStroke(s2)
	o3, n3 := ref.ProcessStroke(s3)

	var want []recordedOp
	want = append(want, expectedOps(o1, n1)...)
	want = append(want, expectedOps(o2, n2)...)
	want = append(want, expectedOps(o3, n3)...)

	port := &scriptedPort{frames: [][]byte{
		chordFrame(8),  // T
		chordFrame(11), // W
		chordFrame(12), // H
	}}

	eng := engine.New()
	mach := machine.New(port, nil, testKeymap)
	inj := &fakeInjector{ready: make(chan struct{}), want: len(want)}

	sup := New(eng, mach, inj)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case <-inj.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the scripted strokes to be injected")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop within a bounded time after cancellation")
	}

	if len(inj.ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d: got %+v want %+v", len(inj.ops), len(want), inj.ops, want)
	}
	for i := range want {
		if inj.ops[i] != want[i] {
			t.Errorf("op %d = %+v, want %+v", i, inj.ops[i], want[i])
		}
	}
}

func TestSupervisorRunStopsPromptlyWithNoStrokes(t *testing.T) {
	port := &scriptedPort{}
	eng := engine.New()
	mach := machine.New(port, nil, testKeymap)
	inj := &fakeInjector{ready: make(chan struct{}), want: -1}

	sup := New(eng, mach, inj)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop within a bounded time")
	}
}
