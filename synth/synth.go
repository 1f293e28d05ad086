// Package synth holds the compiled dataflow graph and the engine that runs it.
//
// A Synth is append-only: nodes are added by the compiler and never removed,
// so a NodeID stays valid for the life of the graph. All numeric state lives
// in one flat array; every node owns the range
//
//	[Offset, Offset+NumState] (state slots, then one output slot)
//
// and refers to its inputs by NodeID only, never by pointer.
package synth

import (
	"bytes"
	"fmt"
	"slices"
)

// NodeID indexes the node table.
type NodeID int

// ProbeID indexes the probe table.
type ProbeID int

type Node struct {
	Kind   Kind
	Inputs []NodeID
	Offset int
}

// Output is the index of the node's output slot in the data array.
func (n *Node) Output() int {
	return n.Offset + n.Kind.NumState()
}

// Probe is the static declaration of a delay line: which node it records and
// how many seconds of history it must keep. Its buffer only exists at run
// time, because its length depends on the sample rate.
type Probe struct {
	Watched NodeID
	MaxTime float64
	bound   bool
}

type Synth struct {
	nodes   []Node
	initial []float64
	probes  []Probe
}

func New() *Synth {
	return &Synth{}
}

// AddNode returns the id of a node with the same kind, inputs and initial
// state if one exists, otherwise it appends a new node whose data range is
// initialData followed by one zeroed output slot.
//
// Inputs must reference existing nodes, which keeps creation order a valid
// evaluation order.
func (s *Synth) AddNode(kind Kind, inputs []NodeID, initialData []float64) NodeID {
	if len(inputs) != kind.NumInputs() {
		panic(fmt.Sprintf("synth: %s takes %d inputs, got %d", kind, kind.NumInputs(), len(inputs)))
	}
	if len(initialData) != kind.NumState() {
		panic(fmt.Sprintf("synth: %s has %d state slots, got %d", kind, kind.NumState(), len(initialData)))
	}
	for _, in := range inputs {
		if !s.valid(in) {
			panic(fmt.Sprintf("synth: input %d of %s does not exist", in, kind))
		}
	}

	if id, ok := s.find(kind, inputs, initialData); ok {
		return id
	}

	id := NodeID(len(s.nodes))
	offset := len(s.initial)
	s.initial = append(s.initial, initialData...)
	s.initial = append(s.initial, 0)
	s.nodes = append(s.nodes, Node{
		Kind:   kind,
		Inputs: slices.Clone(inputs),
		Offset: offset,
	})
	return id
}

func (s *Synth) find(kind Kind, inputs []NodeID, initialData []float64) (NodeID, bool) {
	for i := range s.nodes {
		n := &s.nodes[i]
		if !sameKind(n.Kind, kind) || !slices.Equal(n.Inputs, inputs) {
			continue
		}
		if slices.Equal(s.initial[n.Offset:n.Output()], initialData) {
			return NodeID(i), true
		}
	}
	return 0, false
}

func (s *Synth) valid(id NodeID) bool {
	return 0 <= id && int(id) < len(s.nodes)
}

// NodeOutput maps a node to the data array index holding its output.
func (s *Synth) NodeOutput(id NodeID) int {
	return s.Node(id).Output()
}

func (s *Synth) Node(id NodeID) *Node {
	if !s.valid(id) {
		panic(fmt.Sprintf("synth: node %d does not exist", id))
	}
	return &s.nodes[id]
}

func (s *Synth) Len() int {
	return len(s.nodes)
}

// InitialData returns a copy of the data array as it is before the first tick.
func (s *Synth) InitialData() []float64 {
	return slices.Clone(s.initial)
}

// AllocateProbeID reserves a probe slot. The delay node that reads it can be
// emitted before AddProbe says what the probe watches.
func (s *Synth) AllocateProbeID() ProbeID {
	s.probes = append(s.probes, Probe{})
	return ProbeID(len(s.probes) - 1)
}

// AddProbe binds an allocated probe to the node it records.
func (s *Synth) AddProbe(id ProbeID, maxTime float64, watched NodeID) {
	if id < 0 || int(id) >= len(s.probes) {
		panic(fmt.Sprintf("synth: probe %d was never allocated", id))
	}
	if s.probes[id].bound {
		panic(fmt.Sprintf("synth: probe %d is already bound", id))
	}
	if !s.valid(watched) {
		panic(fmt.Sprintf("synth: probe %d watches missing node %d", id, watched))
	}
	s.probes[id] = Probe{Watched: watched, MaxTime: maxTime, bound: true}
}

func (s *Synth) Probe(id ProbeID) Probe {
	return s.probes[id]
}

func (s *Synth) NumProbes() int {
	return len(s.probes)
}

func (s *Synth) String() string {
	var out bytes.Buffer

	out.WriteString("nodes:\n")
	for i, n := range s.nodes {
		fmt.Fprintf(&out, "  %d: %s %v @%d\n", i, n.Kind, n.Inputs, n.Offset)
	}
	out.WriteString("probes:\n")
	for i, p := range s.probes {
		if !p.bound {
			fmt.Fprintf(&out, "  %d: unbound\n", i)
			continue
		}
		fmt.Fprintf(&out, "  %d: watches %d, max %gs\n", i, p.Watched, p.MaxTime)
	}

	return out.String()
}
