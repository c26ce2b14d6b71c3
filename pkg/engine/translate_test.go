package engine

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		msg     midi.Message
		wantCmd Command
		wantOK  bool
	}{
		{
			name:    "note-on full velocity activates",
			msg:     midi.NoteOn(0, 40, 127),
			wantCmd: Command{Kind: SetState, Note: 40, Active: true},
			wantOK:  true,
		},
		{
			name:   "note-on partial velocity is a no-op",
			msg:    midi.NoteOn(0, 40, 64),
			wantOK: false,
		},
		{
			name:   "note-on velocity 1 is a no-op",
			msg:    midi.NoteOn(0, 40, 1),
			wantOK: false,
		},
		{
			name:    "note-on velocity 0 deactivates",
			msg:     midi.NoteOn(0, 40, 0),
			wantCmd: Command{Kind: SetState, Note: 40, Active: false},
			wantOK:  true,
		},
		{
			name:    "note-off deactivates",
			msg:     midi.NoteOff(0, 41),
			wantCmd: Command{Kind: SetState, Note: 41, Active: false},
			wantOK:  true,
		},
		{
			name:    "note-off on 127 clears all",
			msg:     midi.NoteOff(0, 127),
			wantCmd: Command{Kind: ClearAll},
			wantOK:  true,
		},
		{
			name:    "note-on 127 velocity 0 clears all",
			msg:     midi.NoteOn(0, 127, 0),
			wantCmd: Command{Kind: ClearAll},
			wantOK:  true,
		},
		{
			name:   "note-on 127 full velocity never activates the sentinel",
			msg:    midi.NoteOn(0, 127, 127),
			wantOK: false,
		},
		{
			name:   "control change is ignored",
			msg:    midi.ControlChange(0, 7, 100),
			wantOK: false,
		},
		{
			name:   "pitch bend is ignored",
			msg:    midi.Pitchbend(0, 2048),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := Translate(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("Translate(%s) ok = %v, want %v", tt.msg, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cmd != tt.wantCmd {
				t.Errorf("Translate(%s) = %+v, want %+v", tt.msg, cmd, tt.wantCmd)
			}
		})
	}
}

func TestTranslateIgnoresChannel(t *testing.T) {
	// Button identity is the note number alone; the inbound channel is
	// irrelevant.
	for channel := uint8(0); channel < 16; channel++ {
		cmd, ok := Translate(midi.NoteOn(channel, 55, 127))
		if !ok {
			t.Fatalf("channel %d: Translate not ok", channel)
		}
		if cmd.Note != 55 || !cmd.Active {
			t.Errorf("channel %d: got %+v", channel, cmd)
		}
	}
}
