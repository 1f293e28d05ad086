package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/synthgraph/compiler"
)

func newRenderer(t *testing.T, src string, rate int) *Renderer {
	t.Helper()
	res, err := compiler.CompileSource(src)
	require.NoError(t, err)
	return New(res, rate)
}

func TestSineZeroCrossings(t *testing.T) {
	const rate = 48000
	frames := newRenderer(t, `out : osc(440);`, rate).Render(rate)

	var rising []int
	for i := 1; i < len(frames); i++ {
		require.Equal(t, frames[i].Left, frames[i].Right)
		if frames[i-1].Left < 0 && frames[i].Left >= 0 {
			rising = append(rising, i)
		}
	}

	// one rising crossing per period
	require.InDelta(t, 440, len(rising), 1)
	period := float64(rising[len(rising)-1]-rising[0]) / float64(len(rising)-1)
	assert.InDelta(t, float64(rate)/440, period, 0.05)
	for i := 1; i < len(rising); i++ {
		gap := rising[i] - rising[i-1]
		assert.True(t, gap == 109 || gap == 110, "gap %d between crossings %d and %d", gap, i-1, i)
	}
}

func TestDelayedChannelLagsByExactTicks(t *testing.T) {
	const rate = 1000
	r := newRenderer(t, `x : osc(1); d : delay(0.02, $x); left: $x; right: $d;`, rate)
	frames := r.Render(500)

	lag := int(math.Round(0.02 * rate))
	for k, f := range frames {
		want := 0.0
		if k >= lag {
			want = frames[k-lag].Left
		}
		require.Equal(t, want, f.Right, "frame %d", k)
	}
}

func TestRenderersAreIndependent(t *testing.T) {
	res, err := compiler.CompileSource(`out: delay(0.001, +(osc(3), 0.5));`)
	require.NoError(t, err)

	a := New(res, 100).Render(50)
	b := New(res, 100).Render(50)
	require.Equal(t, a, b)
	require.Equal(t, 0.0, a[0].Left, "delay history starts empty")
}

func TestFrameCountAndPeak(t *testing.T) {
	assert.Equal(t, 48000, FrameCount(1, 48000))
	assert.Equal(t, 22050, FrameCount(0.5, 44100))
	assert.Equal(t, 0, FrameCount(-1, 44100))

	frames := []Frame{{0.1, -0.2}, {-0.9, 0.3}, {0, 0}}
	assert.Equal(t, 0.9, Peak(frames))
	assert.Equal(t, 0.0, Peak(nil))
}
