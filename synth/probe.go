package synth

import (
	"fmt"
	"math"
)

// Ring is a fixed capacity history of values, newest first.
// Record is O(1): the start index moves backwards instead of shifting data.
type Ring struct {
	data  []float64
	start int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		panic("synth: ring capacity must be positive")
	}
	return &Ring{data: make([]float64, capacity)}
}

// maxRingCapacity keeps a ring's length inside a 32-bit int.
const maxRingCapacity = math.MaxInt32

// RingCapacity is the number of samples needed to look maxTime seconds back.
// It panics when that count does not fit in a ring.
func RingCapacity(maxTime float64, sampleRate int) int {
	n := math.Ceil(maxTime * float64(sampleRate))
	if math.IsNaN(n) || n > maxRingCapacity {
		panic(fmt.Sprintf("synth: ring for %g seconds at %d Hz overflows capacity", maxTime, sampleRate))
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

func (r *Ring) Cap() int {
	return len(r.data)
}

// Record overwrites the oldest value with v.
func (r *Ring) Record(v float64) {
	if r.start == 0 {
		r.start = len(r.data) - 1
	} else {
		r.start--
	}
	r.data[r.start] = v
}

// Read returns the value recorded lag samples ago, 0 being the most recent.
// It fails when lag is not below the capacity.
func (r *Ring) Read(lag int) (float64, bool) {
	if lag < 0 || lag >= len(r.data) {
		return 0, false
	}
	return r.data[(r.start+lag)%len(r.data)], true
}
