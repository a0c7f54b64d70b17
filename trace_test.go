package cascader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTraceRoundTrip(t *testing.T) {
	_, trace := ResolveWithTrace(regionTree(), []string{"zhejiang", "hangzhou", "binjiang", "extra"})
	if trace.Stop != StopLeaf || trace.Depth() != 3 || trace.Ignored != 1 {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if !trace.Steps[2].Disabled || !trace.Steps[2].Leaf || trace.Steps[2].Candidates != 2 {
		t.Fatalf("unexpected final step %+v", trace.Steps[2])
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON[string](payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if diff := cmp.Diff(trace, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceNotFound(t *testing.T) {
	_, trace := ResolveWithTrace(regionTree(), []string{"anhui"})
	if trace.Stop != StopNotFound || trace.Depth() != 1 || trace.Steps[0].Found {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if trace.Steps[0].Candidates != 3 {
		t.Fatalf("expected three root candidates, got %d", trace.Steps[0].Candidates)
	}
}

func TestTraceEmptyPath(t *testing.T) {
	_, trace := ResolveWithTrace[string](regionTree(), nil)
	if trace.Stop != StopExhausted || trace.Depth() != 0 || trace.Steps == nil {
		t.Fatalf("unexpected trace %+v", trace)
	}
}

func TestTraceFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TraceFromJSON[string]([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
