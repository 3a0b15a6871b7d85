// ABOUTME: Transport contract for audio ingestion
// ABOUTME: Both the network and shared-memory receivers implement Receiver
package receiver

import "github.com/darkstego/scream/internal/audio"

// Receiver produces validated audio frames, one per call. Receive blocks
// until a frame arrives; malformed input is dropped and retried internally
// and never surfaces as an error. A non-nil error means the receiver is
// closed or irrecoverably broken.
type Receiver interface {
	Receive() (*audio.Frame, error)
	Close() error
}

// Drainer is the non-blocking half of a Receiver. TryReceive hands over a
// frame only if one has already arrived, never waiting for more; ok=false
// means the input is momentarily dry. The driver loop uses it to pull the
// whole backlog that piled up behind a slow sink into the delivery queue,
// where the latency ceiling can see it.
type Drainer interface {
	TryReceive() (*audio.Frame, bool)
}

// Stats counts conditions the receiver absorbed without interrupting
// the stream.
type Stats struct {
	Frames   int64 // valid frames produced
	Invalid  int64 // malformed packets and transient read errors absorbed
	Overruns int64 // ring slots lost to the producer (shared memory only)
}
