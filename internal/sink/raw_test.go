// ABOUTME: Tests for the raw byte-stream sink
// ABOUTME: Verifies byte-identical passthrough and fatal write errors
package sink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/darkstego/scream/internal/audio"
)

func TestRawPassthroughIsByteIdentical(t *testing.T) {
	payload := make([]byte, 320)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	frame := &audio.Frame{
		Format: audio.Format{SampleRate: 16000, SampleBits: 16, Channels: 1},
		Data:   payload,
	}

	var out bytes.Buffer
	s := NewRaw(&out)
	if err := s.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if !bytes.Equal(out.Bytes(), payload) {
		t.Error("payload was not written byte-identical")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe gone")
}

func TestRawWriteErrorIsFatal(t *testing.T) {
	s := NewRaw(failingWriter{})

	frame := &audio.Frame{
		Format: audio.Format{SampleRate: 48000, SampleBits: 16, Channels: 2},
		Data:   make([]byte, 4),
	}

	if err := s.Send(frame); err == nil {
		t.Error("expected a fatal error from a failed write")
	}
}

func TestRawCloseIsNoOp(t *testing.T) {
	s := NewRaw(&bytes.Buffer{})
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
