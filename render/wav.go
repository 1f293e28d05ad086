package render

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	channels  = 2
	formatPCM = 1
)

// SupportedBitDepth reports whether WriteWAV can encode bits per sample.
func SupportedBitDepth(bits int) bool {
	return bits == 16 || bits == 24
}

// WriteWAV encodes frames as stereo integer PCM. Samples are clamped to
// [-1, 1] before quantization.
func WriteWAV(w io.WriteSeeker, frames []Frame, sampleRate, bitDepth int) error {
	if !SupportedBitDepth(bitDepth) {
		return fmt.Errorf("unsupported bit depth %d (want 16 or 24)", bitDepth)
	}

	scale := float64(int(1)<<(bitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, 0, channels*len(frames)),
		SourceBitDepth: bitDepth,
	}
	for _, f := range frames {
		buf.Data = append(buf.Data, quantize(f.Left, scale), quantize(f.Right, scale))
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav header: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes frames to it.
func WriteWAVFile(path string, frames []Frame, sampleRate, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if c := f.Close(); err == nil && c != nil {
			err = c
		}
	}()
	return WriteWAV(f, frames, sampleRate, bitDepth)
}

func quantize(v, scale float64) int {
	return int(math.Round(clampSample(v) * scale))
}

// PeakWAV decodes the WAV file at path and returns its largest absolute
// sample scaled to [0, 1].
func PeakWAV(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if d.BitDepth == 0 {
		return 0, fmt.Errorf("decode %s: missing format chunk", path)
	}

	scale := float64(int(1)<<(d.BitDepth-1) - 1)
	peak := 0
	for _, v := range buf.Data {
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	return float64(peak) / scale, nil
}
