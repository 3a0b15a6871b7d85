// ABOUTME: Per-frame conversion to the open device format
// ABOUTME: Normalizes bit depth, remaps channels and resamples so any stream format plays
package sink

import (
	"github.com/darkstego/scream/internal/audio"
)

// converter rewrites frame payloads into the fixed format of an already
// open device: signed 16-bit LE at the device's sample rate and channel
// count. The device format never changes after open, so later stream
// format changes are absorbed here instead of reopening the device.
type converter struct {
	rate     int
	channels int

	resampler *audio.Resampler
	inRate    int
}

func newConverter(rate, channels int) *converter {
	return &converter{rate: rate, channels: channels}
}

// convert takes one frame's payload in its own format and returns it as
// 16-bit LE at the device rate and channel count.
func (c *converter) convert(f audio.Format, data []byte) []byte {
	pcm := audio.ToInt16LE(f, data)

	if f.Channels != c.channels {
		pcm = remapChannels(pcm, f.Channels, c.channels)
	}

	if f.SampleRate == c.rate {
		c.resampler = nil
		return pcm
	}
	if c.resampler == nil || c.inRate != f.SampleRate {
		c.resampler = audio.NewResampler(f.SampleRate, c.rate, c.channels)
		c.inRate = f.SampleRate
	}
	return c.resampler.Resample(pcm)
}

// remapChannels rewrites 16-bit LE interleaved PCM from one channel count
// to another. Missing output channels repeat the source channels in order
// (mono fans out to every speaker); surplus source channels are dropped.
func remapChannels(pcm []byte, from, to int) []byte {
	if from <= 0 || from == to {
		return pcm
	}

	frames := len(pcm) / (2 * from)
	out := make([]byte, frames*2*to)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < to; ch++ {
			src := (i*from + ch%from) * 2
			dst := (i*to + ch) * 2
			out[dst] = pcm[src]
			out[dst+1] = pcm[src+1]
		}
	}
	return out
}
