// ABOUTME: Latency-bounded delivery queue
// ABOUTME: Reconciles transport arrival cadence with sink consumption under a hard latency ceiling
package delivery

import (
	"log"
	"time"

	"github.com/darkstego/scream/internal/audio"
)

// Queue buffers frames between a transport and a sink, bounded by two
// thresholds: target latency (preferred steady-state depth) and maximum
// latency (hard ceiling). Crossing the ceiling drops the oldest frames
// until the queue is back at target; bounded staleness is preferred over
// unbounded growth.
type Queue struct {
	target  time.Duration
	max     time.Duration
	frames  []*audio.Frame
	depth   time.Duration
	verbose bool
	dropped int64
}

// NewQueue creates a delivery queue with latencies given in milliseconds.
func NewQueue(targetMs, maxMs int, verbose bool) *Queue {
	return &Queue{
		target:  time.Duration(targetMs) * time.Millisecond,
		max:     time.Duration(maxMs) * time.Millisecond,
		verbose: verbose,
	}
}

// Enqueue appends a frame and applies the overrun correction: if buffered
// duration now exceeds the maximum, the oldest frames are dropped (FIFO)
// until the queue is back at or below target. Returns the number of frames
// dropped by the correction.
//
// Buffered duration is accounted per frame from that frame's own format,
// so a queue straddling a format change stays exact.
func (q *Queue) Enqueue(frame *audio.Frame) int {
	q.frames = append(q.frames, frame)
	q.depth += frame.Duration()

	if q.depth <= q.max {
		return 0
	}

	dropped := 0
	for len(q.frames) > 0 && q.depth > q.target {
		q.depth -= q.frames[0].Duration()
		q.frames[0] = nil
		q.frames = q.frames[1:]
		dropped++
	}
	q.dropped += int64(dropped)

	if q.verbose && dropped > 0 {
		log.Printf("Latency ceiling hit, dropped %d oldest frames (buffered %v)", dropped, q.depth)
	}

	return dropped
}

// Next pops the oldest queued frame. Dequeue order is strictly FIFO;
// frames are delivered exactly once, never reordered.
func (q *Queue) Next() (*audio.Frame, bool) {
	if len(q.frames) == 0 {
		return nil, false
	}

	frame := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	q.depth -= frame.Duration()
	return frame, true
}

// Buffered returns the queued playback duration.
func (q *Queue) Buffered() time.Duration {
	return q.depth
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	return len(q.frames)
}

// Dropped returns the total frames discarded by the latency correction.
func (q *Queue) Dropped() int64 {
	return q.dropped
}

// Flush discards everything queued.
func (q *Queue) Flush() {
	for i := range q.frames {
		q.frames[i] = nil
	}
	q.frames = q.frames[:0]
	q.depth = 0
}
