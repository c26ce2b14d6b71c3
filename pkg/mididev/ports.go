// Package mididev opens and enumerates MIDI ports for the bridge. Device
// selection is a configuration-time concern; the engine only ever sees the
// resulting streams.
package mididev

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver
)

// Ports lists the names of the available input and output ports
func Ports() (ins, outs []string) {
	for _, p := range midi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range midi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	return ins, outs
}

// OpenIn finds the named input port. A port whose name contains the given
// string matches, so OS-assigned suffixes don't have to be spelled out.
func OpenIn(name string) (drivers.In, error) {
	in, err := midi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("input port %q: %w", name, err)
	}
	return in, nil
}

// OutPort is an engine.Sender backed by a real MIDI output port
type OutPort struct {
	name string
	send func(midi.Message) error
}

// OpenOut finds the named output port and opens it for sending
func OpenOut(name string) (*OutPort, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("output port %q: %w", name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", name, err)
	}
	return &OutPort{name: out.String(), send: send}, nil
}

// Send writes one message to the port
func (o *OutPort) Send(msg midi.Message) error {
	return o.send(msg)
}

func (o *OutPort) String() string {
	return o.name
}

// Listen starts receiving on in; fn runs on the driver's callback, so it
// must not block. The returned stop function detaches the listener.
func Listen(in drivers.In, fn func(midi.Message)) (stop func(), err error) {
	stop, err = midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		fn(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", in.String(), err)
	}
	return stop, nil
}

// Close releases the underlying MIDI driver and every open port
func Close() {
	midi.CloseDriver()
}
