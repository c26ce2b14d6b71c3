package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/showbridge/midimirror/pkg/state"
)

// fakeSender records every message it is asked to send
type fakeSender struct {
	msgs []midi.Message
	err  error
}

func (f *fakeSender) Send(msg midi.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

// fakeGate is a settable liveness gate
type fakeGate struct {
	open bool
}

func (f *fakeGate) Open() bool { return f.open }

func newTestEngine(gateOpen bool) (*Engine, *state.Store, *fakeSender, *fakeGate) {
	store := state.New()
	out := &fakeSender{}
	gate := &fakeGate{open: gateOpen}
	return New(store, out, gate, zap.NewNop()), store, out, gate
}

// expectNoteStart fails the test unless msg is a note-on with velocity > 0
// for the given note.
func expectNoteStart(t *testing.T, msg midi.Message, note uint8) {
	t.Helper()
	var ch, key, vel uint8
	if !msg.GetNoteStart(&ch, &key, &vel) || key != note {
		t.Errorf("got %s, want note-on for note %d", msg, note)
	}
}

// expectNoteEnd fails the test unless msg deactivates the given note
func expectNoteEnd(t *testing.T, msg midi.Message, note uint8) {
	t.Helper()
	var ch, key uint8
	if !msg.GetNoteEnd(&ch, &key) || key != note {
		t.Errorf("got %s, want note-off for note %d", msg, note)
	}
}

func TestGateClosedSuppressesOutput(t *testing.T) {
	e, store, out, _ := newTestEngine(false)

	e.handle(midi.NoteOn(0, 7, 127))

	if !store.Get(7) {
		t.Error("store should track state even while the gate is closed")
	}
	if len(out.msgs) != 0 {
		t.Errorf("gate closed but %d messages were sent", len(out.msgs))
	}
}

func TestGateReopenDoesNotReplay(t *testing.T) {
	e, store, out, gate := newTestEngine(false)

	e.handle(midi.NoteOn(0, 7, 127))
	gate.open = true
	e.handle(midi.NoteOn(0, 8, 127))

	// Only the event that arrived after the gate opened is mirrored; note 7
	// is not caught up.
	if len(out.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(out.msgs))
	}
	expectNoteStart(t, out.msgs[0], 8)
	if !store.Get(7) || !store.Get(8) {
		t.Error("store should hold both buttons active")
	}
}

func TestRedundantSetSuppressed(t *testing.T) {
	e, _, out, _ := newTestEngine(true)

	e.handle(midi.NoteOn(0, 12, 127))
	e.handle(midi.NoteOn(0, 12, 127))

	if len(out.msgs) != 1 {
		t.Errorf("sent %d messages for a redundant activation, want 1", len(out.msgs))
	}
}

func TestPartialVelocityDoesNotChangeState(t *testing.T) {
	e, store, out, _ := newTestEngine(true)

	e.handle(midi.NoteOn(0, 40, 127))
	e.handle(midi.NoteOn(0, 40, 64))

	if !store.Get(40) {
		t.Error("partial velocity should not flip an active button")
	}
	if len(out.msgs) != 1 {
		t.Errorf("sent %d messages, want 1", len(out.msgs))
	}
}

func TestClearAllEmitsOnlyActiveNotes(t *testing.T) {
	e, store, out, _ := newTestEngine(true)

	e.handle(midi.NoteOn(0, 3, 127))
	e.handle(midi.NoteOn(0, 5, 127))
	e.handle(midi.NoteOn(0, 10, 127))
	e.handle(midi.NoteOff(0, 10))

	out.msgs = nil
	e.handle(midi.NoteOff(0, 127))

	if len(out.msgs) != 2 {
		t.Fatalf("clear-all sent %d messages, want 2", len(out.msgs))
	}
	expectNoteEnd(t, out.msgs[0], 3)
	expectNoteEnd(t, out.msgs[1], 5)

	for _, note := range []uint8{3, 5, 10} {
		if store.Get(note) {
			t.Errorf("note %d still active after clear-all", note)
		}
	}
}

func TestClearAllWithGateClosed(t *testing.T) {
	e, store, out, gate := newTestEngine(true)

	e.handle(midi.NoteOn(0, 3, 127))
	gate.open = false
	out.msgs = nil

	e.handle(midi.NoteOff(0, 127))

	if store.Get(3) {
		t.Error("clear-all should reset the store regardless of the gate")
	}
	if len(out.msgs) != 0 {
		t.Errorf("gate closed but clear-all sent %d messages", len(out.msgs))
	}
}

func TestEndToEndSequence(t *testing.T) {
	e, _, out, _ := newTestEngine(true)

	for _, msg := range []midi.Message{
		midi.NoteOn(0, 40, 127),
		midi.NoteOn(0, 41, 127),
		midi.NoteOff(0, 40),
		midi.NoteOff(0, 127),
	} {
		e.handle(msg)
	}

	if len(out.msgs) != 4 {
		t.Fatalf("sent %d messages, want 4", len(out.msgs))
	}
	expectNoteStart(t, out.msgs[0], 40)
	expectNoteStart(t, out.msgs[1], 41)
	expectNoteEnd(t, out.msgs[2], 40)
	expectNoteEnd(t, out.msgs[3], 41)
}

func TestSendFailureDoesNotStopProcessing(t *testing.T) {
	e, store, out, _ := newTestEngine(true)
	out.err = errors.New("port gone")

	e.handle(midi.NoteOn(0, 40, 127))
	out.err = nil
	e.handle(midi.NoteOn(0, 41, 127))

	if !store.Get(40) || !store.Get(41) {
		t.Error("store should be updated regardless of send failures")
	}
	if len(out.msgs) != 1 {
		t.Errorf("recorded %d messages, want 1", len(out.msgs))
	}
	expectNoteStart(t, out.msgs[0], 41)
}

func TestRunDrainsFeedAndStopsOnCancel(t *testing.T) {
	e, store, _, _ := newTestEngine(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	e.Feed(midi.NoteOn(0, 40, 127))

	deadline := time.After(2 * time.Second)
	for !store.Get(40) {
		select {
		case <-deadline:
			t.Fatal("fed event was never applied to the store")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on cancellation, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
