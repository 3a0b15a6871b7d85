// ABOUTME: Device playback sink using the oto library
// ABOUTME: Feeds a persistent oto player through a pipe and converts frames to the device format
package sink

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/darkstego/scream/internal/audio"
)

// Device plays frames on the default audio device. The oto context is
// created lazily from the first frame's format; a persistent player reads
// from a pipe so playback is continuous across frames.
type Device struct {
	target     time.Duration
	verbose    bool
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	conv       *converter
	format     audio.Format
	ready      bool
}

// NewDevice creates a device sink. The target latency sizes the device
// buffer; the max-latency ceiling is enforced upstream by delivery.
func NewDevice(targetLatencyMs int, verbose bool) *Device {
	return &Device{
		target:  time.Duration(targetLatencyMs) * time.Millisecond,
		verbose: verbose,
	}
}

// Send plays one frame, reconfiguring first if its format differs from
// the previous frame's. Pipe writes block at the device's consumption
// rate, which is what paces the whole loop.
func (d *Device) Send(frame *audio.Frame) error {
	if !d.ready || !d.format.Equal(frame.Format) {
		if err := d.reconfigure(frame.Format); err != nil {
			return err
		}
	}

	if _, err := d.pipeWriter.Write(d.conv.convert(frame.Format, frame.Data)); err != nil {
		return fmt.Errorf("device write failed: %w", err)
	}
	return nil
}

// reconfigure adapts the output to a new stream format. oto allows one
// context per process, so the device stays open at the first stream's
// rate and channel count; every later format is converted to the device
// format per frame, including sample-rate changes, which are resampled.
func (d *Device) reconfigure(format audio.Format) error {
	if d.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   d.target,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		<-readyChan
		d.otoCtx = ctx
		d.conv = newConverter(format.SampleRate, format.Channels)

		d.pipeReader, d.pipeWriter = io.Pipe()
		d.player = d.otoCtx.NewPlayer(d.pipeReader)
		d.player.Play()

		log.Printf("Audio device opened: %s", format)
	} else if format.SampleRate != d.conv.rate || format.Channels != d.conv.channels {
		log.Printf("Format change %s -> %s: converting to the open device format (%dHz %dch)",
			d.format, format, d.conv.rate, d.conv.channels)
	} else if d.verbose {
		log.Printf("Format change %s -> %s handled by conversion", d.format, format)
	}

	d.format = format
	d.ready = true
	return nil
}

// Close tears down the player and suspends the context.
func (d *Device) Close() error {
	if d.pipeWriter != nil {
		d.pipeWriter.Close()
		d.pipeWriter = nil
	}
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	if d.pipeReader != nil {
		d.pipeReader.Close()
		d.pipeReader = nil
	}
	if d.otoCtx != nil {
		d.otoCtx.Suspend()
		d.ready = false
	}
	return nil
}
