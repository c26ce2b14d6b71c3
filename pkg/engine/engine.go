// Package engine implements the stateful bridge between the hardware
// controller input and the mirrored software device.
//
// The engine owns the button state store. Inbound note events always mutate
// the store; whether the resulting change is mirrored to the output device
// depends on the liveness gate. While the companion lighting process is down
// the store keeps tracking reality silently, and nothing is replayed when the
// process comes back: the lighting software announces its own state on start.
package engine

import (
	"context"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/showbridge/midimirror/pkg/state"
)

// mirrorChannel is the MIDI channel the lighting software listens on
const mirrorChannel = 0

// Sender delivers a single MIDI message to the mirrored output device
type Sender interface {
	Send(msg midi.Message) error
}

// Gate reports whether the companion lighting process is currently running
type Gate interface {
	Open() bool
}

// Engine sequences inbound events into store mutations and mirror output
type Engine struct {
	store  *state.Store
	out    Sender
	gate   Gate
	log    *zap.Logger
	events chan midi.Message
}

// New creates an Engine around an existing store
func New(store *state.Store, out Sender, gate Gate, log *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		out:    out,
		gate:   gate,
		log:    log,
		events: make(chan midi.Message, 128),
	}
}

// Feed hands an inbound message to the engine. It never blocks: the MIDI
// driver callback must not stall, so when the queue is full the message is
// dropped with a warning instead.
func (e *Engine) Feed(msg midi.Message) {
	select {
	case e.events <- msg:
	default:
		e.log.Warn("event queue full, dropping message",
			zap.String("msg", msg.String()))
	}
}

// Run drains the event queue until ctx is cancelled. Cancellation is a
// clean shutdown, not an error.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-e.events:
			e.handle(msg)
		}
	}
}

func (e *Engine) handle(msg midi.Message) {
	cmd, ok := Translate(msg)
	if !ok {
		e.log.Debug("ignoring message", zap.String("msg", msg.String()))
		return
	}

	switch cmd.Kind {
	case ClearAll:
		cleared := e.store.ClearAll()
		e.log.Info("clear all", zap.Int("buttons", len(cleared)))
		if !e.gate.Open() {
			return
		}
		for _, note := range cleared {
			e.send(midi.NoteOff(mirrorChannel, note))
		}

	case SetState:
		if !e.store.Set(cmd.Note, cmd.Active) {
			// No change, nothing to mirror.
			return
		}
		e.log.Info("button state",
			zap.Uint8("note", cmd.Note),
			zap.Bool("active", cmd.Active))
		if !e.gate.Open() {
			e.log.Debug("gate closed, output suppressed",
				zap.Uint8("note", cmd.Note))
			return
		}
		if cmd.Active {
			e.send(midi.NoteOn(mirrorChannel, cmd.Note, activateVelocity))
		} else {
			e.send(midi.NoteOff(mirrorChannel, cmd.Note))
		}
	}
}

// send writes one message to the output device. A single failed write is
// tolerable for a supervisory bridge, so it is logged and skipped rather
// than retried.
func (e *Engine) send(msg midi.Message) {
	if err := e.out.Send(msg); err != nil {
		e.log.Warn("output send failed",
			zap.String("msg", msg.String()),
			zap.Error(err))
	}
}
