package synth

import (
	"fmt"
	"math"
)

// MinDelay is the shortest delay in seconds a delay node will request.
const MinDelay = 0.001

// MaxDelay is the largest max a delay node may be built with. Its ring at
// any supported sample rate stays well inside maxRingCapacity.
const MaxDelay = 60.0

// MaxInputs is the number of input slots a node may use. No current Kind
// needs more than two.
const MaxInputs = 3

// Execution is one render's mutable state: a private copy of the data array
// and one history ring per probe. Nothing in it is shared with the Synth or
// with other executions.
type Execution struct {
	synth      *Synth
	data       []float64
	rings      []*Ring
	sampleRate int
	dt         float64
	inputs     [MaxInputs]float64
}

// NewExecution prepares synth to run at sampleRate. Every probe must have
// been bound with AddProbe.
func NewExecution(synth *Synth, sampleRate int) *Execution {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("synth: invalid sample rate %d", sampleRate))
	}
	rings := make([]*Ring, len(synth.probes))
	for i, p := range synth.probes {
		if !p.bound {
			panic(fmt.Sprintf("synth: probe %d was allocated but never bound", i))
		}
		rings[i] = NewRing(RingCapacity(p.MaxTime, sampleRate))
	}
	return &Execution{
		synth:      synth,
		data:       synth.InitialData(),
		rings:      rings,
		sampleRate: sampleRate,
		dt:         1 / float64(sampleRate),
	}
}

func (e *Execution) SampleRate() int {
	return e.sampleRate
}

// Output is the value most recently computed by node id.
func (e *Execution) Output(id NodeID) float64 {
	return e.data[e.synth.NodeOutput(id)]
}

// Ring exposes the history of probe id.
func (e *Execution) Ring(id ProbeID) *Ring {
	return e.rings[id]
}

// Run advances the graph by one sample. All node outputs are computed first,
// then every probe records its watched node. Delay reads during evaluation
// therefore only ever see values committed by earlier ticks.
func (e *Execution) Run() {
	for i := range e.synth.nodes {
		e.evaluate(&e.synth.nodes[i])
	}
	for i, p := range e.synth.probes {
		e.rings[i].Record(e.data[e.synth.nodes[p.Watched].Output()])
	}
}

func (e *Execution) evaluate(n *Node) {
	in := e.inputs[:len(n.Inputs)]
	for i, id := range n.Inputs {
		in[i] = e.data[e.synth.nodes[id].Output()]
	}
	state := e.data[n.Offset:n.Output()]
	out := &e.data[n.Output()]

	switch k := n.Kind.(type) {
	case Constant:
		*out = k.Value
	case BinaryOp:
		*out = k.Op.Apply(in[0], in[1])
	case Oscillator:
		state[0] = advancePhase(state[0], in[0], e.dt)
		*out = math.Sin(2 * math.Pi * state[0])
	case Square:
		state[0] = advancePhase(state[0], in[0], e.dt)
		*out = math.Ceil(2*state[0]) - 1
	case Linear:
		state[0] = math.Mod(state[0]+in[0]*e.dt, k.Max)
		*out = state[0]
	case Sequence:
		*out = k.Values[wrapIndex(in[0], len(k.Values))]
	case Clamp:
		*out = math.Min(math.Max(in[0], k.Min), k.Max)
	case Delay:
		*out = e.readDelay(k, in[0])
	default:
		panic(fmt.Sprintf("synth: unknown node kind %T", k))
	}
}

func (e *Execution) readDelay(k Delay, seconds float64) float64 {
	if math.IsNaN(seconds) {
		seconds = MinDelay
	}
	t := math.Min(math.Max(seconds, MinDelay), k.Max)
	ring := e.rings[k.Probe]
	n := int(math.Round(t * float64(e.sampleRate)))
	n = max(n, 1)

	// lag 0 was recorded at the end of the previous tick
	v, ok := ring.Read(n - 1)
	if !ok {
		panic(fmt.Sprintf("synth: probe %d read %d samples back, capacity %d", k.Probe, n, ring.Cap()))
	}
	return v
}

// advancePhase moves a phase in [0, 1) forward by |freq| cycles per second.
func advancePhase(phase, freq, dt float64) float64 {
	phase += math.Abs(freq) * dt
	return phase - math.Floor(phase)
}

func wrapIndex(x float64, n int) int {
	i := math.Floor(x)
	loc := i - math.Floor(i/float64(n))*float64(n)
	if math.IsNaN(loc) || loc < 0 || loc >= float64(n) {
		return 0
	}
	return int(loc)
}

func (op Operator) Apply(a, b float64) float64 {
	switch op {
	case Add:
		return a + b
	case Sub:
		return a - b
	case Mul:
		return a * b
	case Div:
		return a / b
	case Mod:
		return math.Mod(a, b)
	}
	panic(fmt.Sprintf("synth: unknown operator %q", byte(op)))
}
