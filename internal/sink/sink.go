// ABOUTME: Playback sink contract
// ABOUTME: Sinks absorb transient trouble internally; a Send error is always fatal
package sink

import "github.com/darkstego/scream/internal/audio"

// Sink consumes frames at the device's real playback rate. Send blocks as
// needed; transient conditions (an underrun at the hardware layer, a slow
// consumer) are absorbed inside the sink. A non-nil error from Send means
// the sink is permanently gone and the receiver must stop.
//
// Sinks reconfigure themselves when a frame's format differs from the
// previous one; there is no separate reconfiguration call.
type Sink interface {
	Send(frame *audio.Frame) error
	Close() error
}
