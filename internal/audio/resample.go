// ABOUTME: Linear-interpolation sample rate converter
// ABOUTME: Converts 16-bit LE interleaved PCM between sample rates, keeping phase across chunks
package audio

import "encoding/binary"

// Resampler converts 16-bit little-endian interleaved PCM from one sample
// rate to another by linear interpolation. The fractional read position is
// carried across calls so a stream resampled chunk by chunk stays in phase.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // input frames consumed per output frame
	position   float64
}

// NewResampler creates a resampler for the given rates and channel count.
func NewResampler(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts one chunk of interleaved 16-bit LE samples to the
// output rate. Interpolation stops at the chunk's last frame; the
// fractional position left over is applied to the next chunk.
func (r *Resampler) Resample(in []byte) []byte {
	stride := 2 * r.channels
	inFrames := len(in) / stride
	if inFrames == 0 {
		return nil
	}

	out := make([]byte, 0, (int(float64(inFrames)/r.ratio)+1)*stride)
	var sample [2]byte

	for {
		idx := int(r.position)
		if idx >= inFrames-1 {
			break
		}
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := int16(binary.LittleEndian.Uint16(in[(idx*r.channels+ch)*2:]))
			s2 := int16(binary.LittleEndian.Uint16(in[((idx+1)*r.channels+ch)*2:]))
			v := float64(s1)*(1.0-frac) + float64(s2)*frac
			binary.LittleEndian.PutUint16(sample[:], uint16(int16(v)))
			out = append(out, sample[0], sample[1])
		}

		r.position += r.ratio
	}

	// Keep only the fractional phase for the next chunk.
	r.position -= float64(int(r.position))

	return out
}

// Reset clears the carried phase.
func (r *Resampler) Reset() {
	r.position = 0.0
}
