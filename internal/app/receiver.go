// ABOUTME: Receiver application driver
// ABOUTME: Runs the transport -> delivery -> sink loop and aggregates stats for the UI
package app

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/darkstego/scream/internal/audio"
	"github.com/darkstego/scream/internal/delivery"
	"github.com/darkstego/scream/internal/receiver"
	"github.com/darkstego/scream/internal/sink"
)

// Config wires a transport and a sink into the driver loop.
type Config struct {
	Transport       receiver.Receiver
	Sink            sink.Sink
	TargetLatencyMs int
	MaxLatencyMs    int
	Verbose         bool
}

// Receiver owns the single control loop: pull one frame from the
// transport, shape it through the delivery queue, hand it to the sink.
// There is no feedback channel; only a fatal sink error stops the loop.
type Receiver struct {
	transport receiver.Receiver
	sink      sink.Sink
	queue     *delivery.Queue
	verbose   bool

	stopped   atomic.Bool
	delivered atomic.Int64

	mu     sync.Mutex
	format audio.Format
}

// Stats is a snapshot of the pipeline counters for the UI.
type Stats struct {
	Received   int64
	Delivered  int64
	Dropped    int64
	Overruns   int64
	Invalid    int64
	BufferedMs int64
	Format     audio.Format
}

// New creates the driver around an initialized transport and sink.
func New(cfg Config) *Receiver {
	return &Receiver{
		transport: cfg.Transport,
		sink:      cfg.Sink,
		queue:     delivery.NewQueue(cfg.TargetLatencyMs, cfg.MaxLatencyMs, cfg.Verbose),
		verbose:   cfg.Verbose,
	}
}

// Run drives the loop until Stop is called or the sink fails fatally.
// Only the fatal sink case returns an error; the caller exits non-zero.
func (r *Receiver) Run() error {
	drainer, _ := r.transport.(receiver.Drainer)

	for {
		frame, err := r.transport.Receive()
		if err != nil {
			if r.stopped.Load() {
				return nil
			}
			return fmt.Errorf("transport failed: %w", err)
		}

		r.enqueue(frame)

		// Deliver in FIFO order. Around a format change this hands the
		// sink every old-format frame before the first new-format one,
		// so it reconfigures exactly once, never mid-backlog.
		for {
			// Each blocking Send lets input pile up behind the sink.
			// Pull everything already pending into the queue first, so
			// the latency ceiling sees the real backlog and can shed
			// the oldest frames instead of letting staleness grow.
			if drainer != nil {
				for {
					pending, ok := drainer.TryReceive()
					if !ok {
						break
					}
					r.enqueue(pending)
				}
			}

			r.mu.Lock()
			next, ok := r.queue.Next()
			r.mu.Unlock()
			if !ok {
				break
			}
			if err := r.sink.Send(next); err != nil {
				return fmt.Errorf("sink failed: %w", err)
			}
			r.delivered.Add(1)
		}
	}
}

func (r *Receiver) enqueue(frame *audio.Frame) {
	r.noteFormat(frame.Format)

	r.mu.Lock()
	r.queue.Enqueue(frame)
	r.mu.Unlock()
}

// Stop ends the loop by closing the transport under it.
func (r *Receiver) Stop() {
	r.stopped.Store(true)
	r.transport.Close()
}

// Stats snapshots the pipeline counters.
func (r *Receiver) Stats() Stats {
	s := Stats{
		Delivered: r.delivered.Load(),
	}

	if ts, ok := r.transport.(interface{ Stats() receiver.Stats }); ok {
		t := ts.Stats()
		s.Received = t.Frames
		s.Overruns = t.Overruns
		s.Invalid = t.Invalid
	}

	r.mu.Lock()
	s.Dropped = r.queue.Dropped()
	s.BufferedMs = r.queue.Buffered().Milliseconds()
	s.Format = r.format
	r.mu.Unlock()

	return s
}

func (r *Receiver) noteFormat(f audio.Format) {
	r.mu.Lock()
	changed := !r.format.Equal(f) && r.format != (audio.Format{})
	first := r.format == (audio.Format{})
	r.format = f
	r.mu.Unlock()

	if first {
		log.Printf("Stream format: %s", f)
	} else if changed {
		log.Printf("Stream format changed: %s", f)
	}
}
