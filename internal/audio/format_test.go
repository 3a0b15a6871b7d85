// ABOUTME: Tests for format model and wire header codec
// ABOUTME: Covers rate codes, range validation and payload alignment
package audio

import (
	"testing"
	"time"
)

func TestDecodeRateCodes(t *testing.T) {
	cases := []struct {
		code byte
		rate int
	}{
		{0x01, 48000},
		{0x02, 96000},
		{0x04, 192000},
		{0x81, 44100},
		{0x82, 88200},
	}

	for _, c := range cases {
		rate, err := decodeRate(c.code)
		if err != nil {
			t.Fatalf("decodeRate(%#02x) failed: %v", c.code, err)
		}
		if rate != c.rate {
			t.Errorf("decodeRate(%#02x) = %d, want %d", c.code, rate, c.rate)
		}
	}
}

func TestDecodeRateRejectsZeroMultiplier(t *testing.T) {
	for _, code := range []byte{0x00, 0x80} {
		if _, err := decodeRate(code); err == nil {
			t.Errorf("decodeRate(%#02x) should fail", code)
		}
	}
}

func TestRateCodeRoundTrip(t *testing.T) {
	for _, rate := range []int{44100, 48000, 88200, 96000, 176400, 192000} {
		code, err := encodeRate(rate)
		if err != nil {
			t.Fatalf("encodeRate(%d) failed: %v", rate, err)
		}
		got, err := decodeRate(code)
		if err != nil {
			t.Fatalf("decodeRate(%#02x) failed: %v", code, err)
		}
		if got != rate {
			t.Errorf("rate %d round-tripped to %d", rate, got)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := Format{SampleRate: 48000, SampleBits: 16, Channels: 2, ChannelMask: 0x0003}

	var b [HeaderSize]byte
	if err := EncodeHeader(b[:], want); err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}

	got, err := ParseHeader(b[:])
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseHeaderRejectsShortInput(t *testing.T) {
	if _, err := ParseHeader([]byte{0x01, 16, 2}); err == nil {
		t.Error("expected error for short header")
	}
}

func TestValidateFormatRanges(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		ok     bool
	}{
		{"stereo 16-bit", Format{48000, 16, 2, 0x03}, true},
		{"mono 8-bit", Format{16000, 8, 1, 0x04}, true},
		{"max channels", Format{48000, 24, 255, 0}, true},
		{"zero channels", Format{48000, 16, 0, 0}, false},
		{"bad bit depth", Format{48000, 12, 2, 0}, false},
		{"zero rate", Format{0, 16, 2, 0}, false},
	}

	for _, c := range cases {
		err := ValidateFormat(c.format)
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestCheckAlignment(t *testing.T) {
	stereo16 := Format{SampleRate: 48000, SampleBits: 16, Channels: 2}

	if err := CheckAlignment(stereo16, 1152); err != nil {
		t.Errorf("aligned payload rejected: %v", err)
	}
	if err := CheckAlignment(stereo16, 3); err == nil {
		t.Error("misaligned payload accepted")
	}
	if err := CheckAlignment(stereo16, 0); err == nil {
		t.Error("empty payload accepted")
	}
	if err := CheckAlignment(stereo16, MaxPayload+4); err == nil {
		t.Error("oversized payload accepted")
	}
}

// A 10-byte datagram claiming 2ch/16-bit leaves a 5-byte payload, which
// is not a whole number of 4-byte sample frames.
func TestParseFrameRejectsMisalignedDatagram(t *testing.T) {
	pkt := make([]byte, 10)
	if err := EncodeHeader(pkt, Format{SampleRate: 48000, SampleBits: 16, Channels: 2}); err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}

	if _, err := ParseFrame(pkt); err == nil {
		t.Error("misaligned datagram accepted")
	}
}

func TestParseFrameAlignmentInvariant(t *testing.T) {
	pkt := make([]byte, HeaderSize+960)
	format := Format{SampleRate: 48000, SampleBits: 16, Channels: 2, ChannelMask: 0x03}
	if err := EncodeHeader(pkt, format); err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}

	frame, err := ParseFrame(pkt)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}

	if len(frame.Data)%(frame.Format.Channels*frame.Format.SampleBits/8) != 0 {
		t.Error("accepted frame violates alignment invariant")
	}
}

func TestParseFrameCopiesPayload(t *testing.T) {
	pkt := make([]byte, HeaderSize+4)
	if err := EncodeHeader(pkt, Format{SampleRate: 48000, SampleBits: 16, Channels: 2}); err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	pkt[HeaderSize] = 0xAA

	frame, err := ParseFrame(pkt)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}

	pkt[HeaderSize] = 0x55
	if frame.Data[0] != 0xAA {
		t.Error("frame payload aliases the receive buffer")
	}
}

func TestFrameDuration(t *testing.T) {
	// 192000 bytes/sec, so 1920 bytes is 10ms.
	frame := &Frame{
		Format: Format{SampleRate: 48000, SampleBits: 16, Channels: 2},
		Data:   make([]byte, 1920),
	}

	if d := frame.Duration(); d != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", d)
	}
}
