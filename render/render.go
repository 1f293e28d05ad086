// Package render drives a compiled graph one sample at a time and turns the
// resulting stereo frames into audio: a WAV file or the default output device.
package render

import (
	"math"

	"github.com/thiremani/synthgraph/compiler"
	"github.com/thiremani/synthgraph/synth"
)

// Frame is one stereo sample.
type Frame struct {
	Left  float64
	Right float64
}

// Renderer owns one execution of a graph. Each Renderer starts from the
// graph's initial state with empty delay history.
type Renderer struct {
	exec  *synth.Execution
	left  synth.NodeID
	right synth.NodeID
}

func New(result *compiler.Result, sampleRate int) *Renderer {
	return &Renderer{
		exec:  synth.NewExecution(result.Synth, sampleRate),
		left:  result.Left,
		right: result.Right,
	}
}

func (r *Renderer) SampleRate() int {
	return r.exec.SampleRate()
}

// Next advances the graph by one tick and returns the channel outputs.
func (r *Renderer) Next() Frame {
	r.exec.Run()
	return Frame{
		Left:  r.exec.Output(r.left),
		Right: r.exec.Output(r.right),
	}
}

// Render collects the next n frames.
func (r *Renderer) Render(n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = r.Next()
	}
	return frames
}

// FrameCount converts a duration in seconds to a whole number of frames.
func FrameCount(seconds float64, sampleRate int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}

// Peak returns the largest absolute sample over both channels.
func Peak(frames []Frame) float64 {
	peak := 0.0
	for _, f := range frames {
		peak = math.Max(peak, math.Max(math.Abs(f.Left), math.Abs(f.Right)))
	}
	return peak
}

func clampSample(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, -1), 1)
}
