// ABOUTME: Shared-memory (IVSHMEM) receiver
// ABOUTME: Optimistic lock-free reads of a sequence-stamped ring written by an external producer
package receiver

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/darkstego/scream/internal/audio"
)

// Segment layout, all fields little-endian:
//
//	0   magic       uint32 "SCM1"
//	4   slot count  uint32
//	8   payload size uint32 (bytes of PCM per slot)
//	12  reserved    uint32
//	16  head        uint64 (sequence the producer writes next)
//	24  slot array
//
// Each slot: sequence uint64, 5-byte format header, 3 bytes pad, payload.
// The producer fills slot (seq % count), then advances head to seq+1. The
// head counter is only eventually consistent with slot contents, so the
// reader trusts the per-slot sequence stamp, not head alone.
const (
	segMagic = 0x314D4353 // "SCM1"

	segSlotsOff   = 4
	segPayloadOff = 8
	segHeadOff    = 16
	segSlotsStart = 24

	slotHeaderOff  = 8
	slotPayloadOff = 16
)

const pollInterval = time.Millisecond

// ringReader runs the ring protocol over a mapped byte slice. The mapping
// is read-only and concurrently written by an uncoordinated process; all
// inconsistency is handled by the sequence check, never assumed away.
type ringReader struct {
	mem         []byte
	slots       uint64
	payloadSize int
	next        uint64 // expected sequence of the next slot to consume
}

func newRingReader(mem []byte) (*ringReader, error) {
	if len(mem) < segSlotsStart {
		return nil, fmt.Errorf("segment too small: %d bytes", len(mem))
	}
	if binary.LittleEndian.Uint32(mem) != segMagic {
		return nil, fmt.Errorf("bad segment magic: %#08x", binary.LittleEndian.Uint32(mem))
	}

	slots := binary.LittleEndian.Uint32(mem[segSlotsOff:])
	payloadSize := binary.LittleEndian.Uint32(mem[segPayloadOff:])
	if slots == 0 || payloadSize == 0 || payloadSize > audio.MaxPayload {
		return nil, fmt.Errorf("bad ring geometry: %d slots of %d bytes", slots, payloadSize)
	}

	need := segSlotsStart + int(slots)*(slotPayloadOff+int(payloadSize))
	if len(mem) < need {
		return nil, fmt.Errorf("segment truncated: %d bytes, ring needs %d", len(mem), need)
	}

	r := &ringReader{
		mem:         mem,
		slots:       uint64(slots),
		payloadSize: int(payloadSize),
	}
	// Start live at the producer's current position; history before the
	// attach is never replayed.
	r.next = r.head()
	return r, nil
}

func (r *ringReader) head() uint64 {
	return binary.LittleEndian.Uint64(r.mem[segHeadOff:])
}

func (r *ringReader) slot(seq uint64) []byte {
	size := slotPayloadOff + r.payloadSize
	off := segSlotsStart + int(seq%r.slots)*size
	return r.mem[off : off+size]
}

// poll attempts one read at the cursor. It returns a frame when the slot
// held the expected sequence through the whole copy, overrun=true when the
// producer lapped the cursor (cursor is resynchronized to head), and all
// zero values when no new slot is ready yet.
func (r *ringReader) poll() (frame *audio.Frame, overrun bool, invalid bool) {
	if r.head() <= r.next {
		return nil, false, false
	}

	slot := r.slot(r.next)
	if binary.LittleEndian.Uint64(slot) != r.next {
		// Overwritten before we got to it. Skip the lost span entirely.
		r.next = r.head()
		return nil, true, false
	}

	format, err := audio.ParseHeader(slot[slotHeaderOff:])
	if err == nil {
		err = audio.CheckAlignment(format, r.payloadSize)
	}
	if err != nil {
		r.next++
		return nil, false, true
	}

	data := make([]byte, r.payloadSize)
	copy(data, slot[slotPayloadOff:])

	// Recheck after the copy: a slot rewritten mid-copy is the same
	// overrun case, just caught later.
	if binary.LittleEndian.Uint64(slot) != r.next {
		r.next = r.head()
		return nil, true, false
	}

	r.next++
	return &audio.Frame{Format: format, Data: data}, false, false
}

// SharedMemory receives frames from a mapped IVSHMEM ring.
type SharedMemory struct {
	mem     []byte
	ring    *ringReader
	verbose bool
	closed  chan struct{}

	frames   atomic.Int64
	overruns atomic.Int64
	invalid  atomic.Int64
}

// NewSharedMemory maps the IVSHMEM device read-only and attaches to the
// ring at the producer's current head.
func NewSharedMemory(path string, verbose bool) (*SharedMemory, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}

	ring, err := newRingReader(mem)
	if err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if verbose {
		log.Printf("Attached to shared-memory ring: %d slots of %d bytes, head=%d",
			ring.slots, ring.payloadSize, ring.next)
	}

	return &SharedMemory{
		mem:     mem,
		ring:    ring,
		verbose: verbose,
		closed:  make(chan struct{}),
	}, nil
}

// newSharedMemoryRing wires a receiver over caller-owned memory. Tests use
// it to drive the ring protocol without a device.
func newSharedMemoryRing(mem []byte, verbose bool) (*SharedMemory, error) {
	ring, err := newRingReader(mem)
	if err != nil {
		return nil, err
	}
	return &SharedMemory{
		ring:    ring,
		verbose: verbose,
		closed:  make(chan struct{}),
	}, nil
}

// Receive busy-polls the ring with short sleeps until a slot is readable.
// Overruns resynchronize the cursor and are counted, never fatal.
func (s *SharedMemory) Receive() (*audio.Frame, error) {
	for {
		select {
		case <-s.closed:
			return nil, fmt.Errorf("shared-memory receiver closed")
		default:
		}

		if frame, ok := s.TryReceive(); ok {
			return frame, nil
		}

		select {
		case <-s.closed:
			return nil, fmt.Errorf("shared-memory receiver closed")
		case <-time.After(pollInterval):
		}
	}
}

// TryReceive reads the next readable slot without waiting for the
// producer. ok=false means the cursor has caught up with head.
func (s *SharedMemory) TryReceive() (*audio.Frame, bool) {
	for {
		frame, overrun, invalid := s.ring.poll()
		switch {
		case frame != nil:
			s.frames.Add(1)
			return frame, true
		case overrun:
			s.overruns.Add(1)
			if s.verbose {
				log.Printf("Ring overrun, resynchronized to sequence %d", s.ring.next)
			}
		case invalid:
			s.invalid.Add(1)
			if s.verbose {
				log.Printf("Dropped ring slot with invalid header")
			}
		default:
			return nil, false
		}
	}
}

// Stats returns counters for the TUI.
func (s *SharedMemory) Stats() Stats {
	return Stats{
		Frames:   s.frames.Load(),
		Invalid:  s.invalid.Load(),
		Overruns: s.overruns.Load(),
	}
}

// Close unblocks any pending Receive. The mapping itself is left in
// place: the ring outlives any one receiver and is reclaimed by the OS
// at process exit, which also keeps a concurrent poll from touching
// unmapped memory.
func (s *SharedMemory) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}
