// ABOUTME: Raw byte-stream sink
// ABOUTME: Writes PCM payloads untouched to an io.Writer, typically stdout
package sink

import (
	"fmt"
	"io"

	"github.com/darkstego/scream/internal/audio"
)

// Raw streams frame payloads to a writer without any conversion. Format
// changes need no handling here; the bytes pass through as received.
type Raw struct {
	w io.Writer
}

// NewRaw creates a raw sink over w.
func NewRaw(w io.Writer) *Raw {
	return &Raw{w: w}
}

// Send writes the payload. Any write error means the stream is gone.
func (r *Raw) Send(frame *audio.Frame) error {
	if _, err := r.w.Write(frame.Data); err != nil {
		return fmt.Errorf("raw output write failed: %w", err)
	}
	return nil
}

// Close is a no-op; the writer is owned by the caller.
func (r *Raw) Close() error {
	return nil
}
