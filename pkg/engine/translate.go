package engine

import (
	"gitlab.com/gomidi/midi/v2"
)

// CommandKind identifies the store mutation a message translates to
type CommandKind int

const (
	// SetState turns a single button on or off
	SetState CommandKind = iota
	// ClearAll turns every tracked button off
	ClearAll
)

const (
	// clearAllNote is the control code the controller sends (as a note-off)
	// to reset every tracked button. It never identifies a button itself.
	clearAllNote = 127

	// activateVelocity is the only velocity that turns a button on. The
	// controller sends full scale as an activation confirmation; anything
	// in between comes from its velocity curve and carries no meaning here.
	activateVelocity = 127
)

// Command is a single store mutation derived from an inbound MIDI message
type Command struct {
	Kind   CommandKind
	Note   uint8
	Active bool
}

// Translate maps an inbound message to a store mutation. ok is false for
// messages that carry no state meaning: note-ons with a partial velocity,
// control changes, pitch bends and everything else that is not a note event.
func Translate(msg midi.Message) (cmd Command, ok bool) {
	var channel, note, velocity uint8

	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		if velocity == activateVelocity && note != clearAllNote {
			return Command{Kind: SetState, Note: note, Active: true}, true
		}
		return Command{}, false

	case msg.GetNoteEnd(&channel, &note):
		// Covers real note-offs and note-ons with velocity 0.
		if note == clearAllNote {
			return Command{Kind: ClearAll}, true
		}
		return Command{Kind: SetState, Note: note, Active: false}, true
	}

	return Command{}, false
}
