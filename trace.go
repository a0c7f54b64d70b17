package cascader

import (
	"encoding/json"
)

// StopReason explains why path resolution ended.
type StopReason string

const (
	// StopExhausted means every path value was consumed and a trailing level
	// was appended for the next choice.
	StopExhausted StopReason = "exhausted"
	// StopLeaf means the last consumed value resolved to a leaf option.
	StopLeaf StopReason = "leaf"
	// StopNotFound means a path value did not match any sibling at its depth.
	StopNotFound StopReason = "not_found"
)

// Trace captures how a path was consumed during resolution.
type Trace[V comparable] struct {
	Path    []V            `json:"path"`
	Steps   []TraceStep[V] `json:"steps"`
	Stop    StopReason     `json:"stop"`
	Ignored int            `json:"ignored,omitempty"`
}

// TraceStep records the lookup of a single path value.
type TraceStep[V comparable] struct {
	Depth      int    `json:"depth"`
	Value      V      `json:"value"`
	Found      bool   `json:"found"`
	Label      string `json:"label,omitempty"`
	Leaf       bool   `json:"leaf,omitempty"`
	Pending    bool   `json:"pending,omitempty"`
	Disabled   bool   `json:"disabled,omitempty"`
	Candidates int    `json:"candidates"`
}

func newTraceStep[V comparable](depth int, value V, target *Option[V], candidates int) TraceStep[V] {
	step := TraceStep[V]{
		Depth:      depth,
		Value:      value,
		Candidates: candidates,
	}
	if target != nil {
		step.Found = true
		step.Label = target.Label
		step.Leaf = target.IsLeaf()
		step.Pending = target.Pending
		step.Disabled = target.Disabled
	}
	return step
}

// Depth returns the number of path values that were consumed.
func (t Trace[V]) Depth() int {
	return len(t.Steps)
}

// ToJSON serialises the trace for logging or CLI output.
func (t Trace[V]) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// TraceFromJSON deserialises a payload previously produced by ToJSON.
func TraceFromJSON[V comparable](payload []byte) (Trace[V], error) {
	var trace Trace[V]
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace[V]{}, err
	}
	return trace, nil
}
