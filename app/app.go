// Package app wires the engine, the machine driver, and an OS
// keyboard-injection collaborator together into the three cooperating
// goroutines a running session needs: reading strokes, serving a UI
// subscription, and forwarding terminal resize signals.
package app

import (
	"context"
	"sync"

	"github.com/notewio/moreover/engine"
	"github.com/notewio/moreover/format"
	"github.com/notewio/moreover/log"
	"github.com/notewio/moreover/machine"
)

// Injector is the OS keyboard-injection layer a Supervisor drives.
// It is specified here so Supervisor can be compiled and tested
// without a real implementation.
type Injector interface {
	// Delete issues n backspaces, one per Text action being retracted
	// from the old-action remainder of a ProcessStroke diff.
	Delete(n int) error
	// Send issues the keyboard effect of a single action.
	Send(a format.Action) error
}

// Supervisor owns one session's engine, machine, and injector, and
// runs the goroutines that connect them.
type Supervisor struct {
	Engine   *engine.Engine
	Machine  *machine.Machine
	Injector Injector
	Events   *EventBus

	log *log.Logger

	mu          sync.Mutex
	strokeCount int
}

// New builds a Supervisor around an already-configured engine, machine,
// and injector. Events is set to a fresh EventBus with a buffer of 16;
// a caller may replace it before Run, which expects it to be non-nil.
func New(eng *engine.Engine, mach *machine.Machine, inj Injector) *Supervisor {
	return &Supervisor{
		Engine:   eng,
		Machine:  mach,
		Injector: inj,
		Events:   NewEventBus(16),
		log:      log.Default().Module("app"),
	}
}

// Run starts the input, UI, and OS-event goroutines and blocks until
// ctx is cancelled and all three have exited. A stroke already being
// processed when ctx is cancelled is always finished and injected
// before the input goroutine observes cancellation.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)

	var inputErr error
	go func() {
		defer wg.Done()
		inputErr = s.runInput(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runUI(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runOSEvents(ctx)
	}()

	wg.Wait()
	return inputErr
}

// runInput is the sole caller of Engine.ProcessStroke, preserving its
// single-caller invariant. It reads one stroke, translates it, injects
// the resulting action diff, and publishes a throughput event, looping
// until ctx is cancelled.
func (s *Supervisor) runInput(ctx context.Context) error {
	status := make(chan string, 1)
	go func() {
		for st := range status {
			s.Events.PublishAsync(EventMachineStatus, st)
		}
	}()
	defer close(status)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		stroke, err := s.Machine.Read(ctx, status)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("machine read failed", "error", err)
			return err
		}
		if stroke == 0 {
			continue
		}

		old, added := s.Engine.ProcessStroke(stroke)
		if err := s.inject(old, added); err != nil {
			s.log.Error("injection failed", "error", err)
			return err
		}

		s.mu.Lock()
		s.strokeCount++
		count := s.strokeCount
		s.mu.Unlock()
		s.Events.PublishAsync(EventStroke, StrokeEvent{StrokeCount: count})
	}
}

// inject retracts the old action remainder (as backspaces for Text
// actions) and sends the new action remainder forward.
func (s *Supervisor) inject(old, added []format.Action) error {
	deletes := 0
	for _, a := range old {
		if a.Kind == format.ActionText {
			deletes++
		} else if err := s.Injector.Send(a); err != nil {
			return err
		}
	}
	if deletes > 0 {
		if err := s.Injector.Delete(deletes); err != nil {
			return err
		}
	}
	for _, a := range added {
		if err := s.Injector.Send(a); err != nil {
			return err
		}
	}
	return nil
}

// runUI drains an EventBus subscription. A real terminal UI is out of
// scope; this goroutine exists so one can be layered on later without
// changing Supervisor's shape.
func (s *Supervisor) runUI(ctx context.Context) {
	sub := s.Events.SubscribeMultiple(EventStroke, EventMachineStatus, EventResize)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Chan():
			if !ok {
				return
			}
		}
	}
}
