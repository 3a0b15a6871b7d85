// ABOUTME: Audio format and frame model for the Scream protocol
// ABOUTME: Parses and validates the 5-byte wire header shared by all transports
package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// HeaderSize is the fixed wire header: rate code, bit depth,
	// channel count, channel mask (little-endian uint16).
	HeaderSize = 5

	// MaxPayload is the protocol chunk size: every packet and ring slot
	// carries at most this many bytes of PCM.
	MaxPayload = 1152

	// MaxDatagram is the largest valid network packet.
	MaxDatagram = HeaderSize + MaxPayload
)

// Rate code bases. Bit 7 of the rate code selects the 44.1kHz family,
// the low 7 bits are the multiplier.
const (
	rateBase48k  = 48000
	rateBase44k1 = 44100
	rateFlag44k1 = 0x80
)

// Format describes the PCM stream format carried in every header.
type Format struct {
	SampleRate  int
	SampleBits  int
	Channels    int
	ChannelMask uint16
}

// Equal reports whether two formats match; a mismatch means the sink
// must reconfigure before playing the new frame.
func (f Format) Equal(other Format) bool {
	return f == other
}

// FrameSize returns the size in bytes of one sample frame
// (all channels at the configured bit depth).
func (f Format) FrameSize() int {
	return f.Channels * f.SampleBits / 8
}

// BytesPerSecond returns the PCM data rate implied by the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz %d-bit %dch", f.SampleRate, f.SampleBits, f.Channels)
}

// Frame is one unit of audio moving through the pipeline: an immutable
// format plus a PCM payload chunk, produced by a transport and consumed
// exactly once by delivery.
type Frame struct {
	Format Format
	Data   []byte
}

// Duration returns the playback time of the frame's payload.
func (fr *Frame) Duration() time.Duration {
	bps := fr.Format.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(len(fr.Data)) * time.Second / time.Duration(bps)
}

// ParseHeader decodes the wire header. It validates field ranges but
// not payload alignment; callers pair it with CheckAlignment.
func ParseHeader(b []byte) (Format, error) {
	if len(b) < HeaderSize {
		return Format{}, fmt.Errorf("header too short: %d bytes", len(b))
	}

	rate, err := decodeRate(b[0])
	if err != nil {
		return Format{}, err
	}

	f := Format{
		SampleRate:  rate,
		SampleBits:  int(b[1]),
		Channels:    int(b[2]),
		ChannelMask: binary.LittleEndian.Uint16(b[3:5]),
	}

	if err := ValidateFormat(f); err != nil {
		return Format{}, err
	}

	return f, nil
}

// EncodeHeader writes the 5-byte wire header for a format.
func EncodeHeader(b []byte, f Format) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("header buffer too short: %d bytes", len(b))
	}

	code, err := encodeRate(f.SampleRate)
	if err != nil {
		return err
	}

	b[0] = code
	b[1] = byte(f.SampleBits)
	b[2] = byte(f.Channels)
	binary.LittleEndian.PutUint16(b[3:5], f.ChannelMask)
	return nil
}

// ValidateFormat rejects formats outside the supported ranges:
// channels in [1,255], bit depth one of 8/16/24/32.
func ValidateFormat(f Format) error {
	switch f.SampleBits {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", f.SampleBits)
	}
	if f.Channels < 1 || f.Channels > 255 {
		return fmt.Errorf("unsupported channel count: %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	return nil
}

// CheckAlignment rejects payloads that are empty or not a whole number
// of sample frames. Frames failing this never leave the transport.
func CheckAlignment(f Format, payloadLen int) error {
	if payloadLen <= 0 {
		return fmt.Errorf("empty payload")
	}
	if payloadLen > MaxPayload {
		return fmt.Errorf("payload too large: %d bytes", payloadLen)
	}
	if payloadLen%f.FrameSize() != 0 {
		return fmt.Errorf("payload %d bytes not aligned to %d-byte frames", payloadLen, f.FrameSize())
	}
	return nil
}

// ParseFrame validates a raw packet (header + payload) and copies it
// into a Frame. The input buffer is owned by the caller and may be
// reused after return.
func ParseFrame(b []byte) (*Frame, error) {
	format, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}

	payload := b[HeaderSize:]
	if err := CheckAlignment(format, len(payload)); err != nil {
		return nil, err
	}

	data := make([]byte, len(payload))
	copy(data, payload)

	return &Frame{Format: format, Data: data}, nil
}

// decodeRate expands a rate code into a sample rate in Hz.
func decodeRate(code byte) (int, error) {
	mult := int(code &^ rateFlag44k1)
	if mult == 0 {
		return 0, fmt.Errorf("invalid rate code: %#02x", code)
	}
	if code&rateFlag44k1 != 0 {
		return rateBase44k1 * mult, nil
	}
	return rateBase48k * mult, nil
}

// encodeRate compresses a sample rate into a rate code. Only multiples
// of the two base rates are representable on the wire.
func encodeRate(rate int) (byte, error) {
	if rate > 0 && rate%rateBase44k1 == 0 && rate/rateBase44k1 < rateFlag44k1 {
		return rateFlag44k1 | byte(rate/rateBase44k1), nil
	}
	if rate > 0 && rate%rateBase48k == 0 && rate/rateBase48k < rateFlag44k1 {
		return byte(rate / rateBase48k), nil
	}
	return 0, fmt.Errorf("sample rate %d not representable as a rate code", rate)
}
