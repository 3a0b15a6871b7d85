// ABOUTME: Tests for bit-depth conversion
// ABOUTME: Verifies 8/24/32-bit payloads convert to 16-bit LE and 16-bit passes through
package audio

import (
	"bytes"
	"testing"
)

func TestToInt16LEPassthrough(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	out := ToInt16LE(Format{SampleBits: 16, Channels: 2, SampleRate: 48000}, in)
	if !bytes.Equal(out, in) {
		t.Errorf("16-bit input modified: %v", out)
	}
}

func TestToInt16LEFrom24Bit(t *testing.T) {
	// One sample 0x030201: the low byte is discarded.
	in := []byte{0x01, 0x02, 0x03}
	out := ToInt16LE(Format{SampleBits: 24, Channels: 1, SampleRate: 48000}, in)
	want := []byte{0x02, 0x03}
	if !bytes.Equal(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestToInt16LEFrom32Bit(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	out := ToInt16LE(Format{SampleBits: 32, Channels: 1, SampleRate: 48000}, in)
	want := []byte{0x03, 0x04}
	if !bytes.Equal(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestToInt16LEFrom8Bit(t *testing.T) {
	// Unsigned midpoint 128 maps to signed zero.
	out := ToInt16LE(Format{SampleBits: 8, Channels: 1, SampleRate: 16000}, []byte{128, 255, 0})
	want := []byte{0x00, 0x00, 0x00, 0x7F, 0x00, 0x80}
	if !bytes.Equal(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}
