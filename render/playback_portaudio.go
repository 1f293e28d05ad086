//go:build portaudio

package render

import (
	"context"
	"fmt"

	pa "github.com/gordonklaus/portaudio"
)

// PlaybackAvailable reports whether this build can play to an audio device.
const PlaybackAvailable = true

// Play streams the next frames of r to the default output device. It
// returns ctx.Err() if ctx is cancelled before all frames are written.
func Play(ctx context.Context, r *Renderer, frames int) error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer pa.Terminate()

	out := make([]float32, channels*playbackBufferFrames)
	stream, err := pa.OpenDefaultStream(0, channels, float64(r.SampleRate()), playbackBufferFrames, &out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	for written := 0; written < frames; written += playbackBufferFrames {
		if err := ctx.Err(); err != nil {
			return err
		}
		fillBuffer(out, r, frames-written)
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}
	return nil
}

// fillBuffer writes up to remaining interleaved frames into out and pads
// the rest with silence.
func fillBuffer(out []float32, r *Renderer, remaining int) {
	for i := 0; i < len(out)/channels; i++ {
		var f Frame
		if i < remaining {
			f = r.Next()
		}
		out[channels*i] = float32(clampSample(f.Left))
		out[channels*i+1] = float32(clampSample(f.Right))
	}
}
