package cascader

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDepthOutOfRange indicates a selection depth beyond the current path.
var ErrDepthOutOfRange = errors.New("cascader: depth out of range")

// Change describes a committed path mutation.
type Change[V comparable] struct {
	// Previous is the effective path before the mutation.
	Previous []V
	// Path is the committed path delivered to change listeners.
	Path []V
	// Extend summarises Path over the current tree.
	Extend ValueExtend[V]
	// Effective is the path the levels were derived from after the commit.
	// It differs from Path while a controlled override is in place.
	Effective []V
	// Source is the layer Effective came from.
	Source PathSource
	// Levels is the recomputed level sequence for Effective.
	Levels []Level[V]
	// Committed is set when the owned path was written and is also the
	// effective one, even if its content did not change.
	Committed bool
}

// PathChanged reports whether the effective path moved.
func (c Change[V]) PathChanged() bool {
	return !slices.Equal(c.Previous, c.Effective)
}

// Refocus reports whether focus should move to the deepest level: every
// commit to the effective owned path does, other changes only when the
// effective path moved.
func (c Change[V]) Refocus() bool {
	return c.Committed || c.PathChanged()
}

// Selection owns the current path and re-derives the level sequence on every
// path or tree change.
//
// Selecting at depth D keeps path[:D], replaces path[D] and drops everything
// after it, so changing an ancestor invalidates all descendant choices.
type Selection[V comparable] struct {
	tree   []Option[V]
	layers *PathLayers[V]
	path   []V
	source PathSource
	levels []Level[V]
}

// NewSelection builds a controller over tree starting from defaultPath.
func NewSelection[V comparable](tree []Option[V], defaultPath []V) *Selection[V] {
	s := &Selection[V]{
		tree:   tree,
		layers: NewPathLayers(defaultPath),
	}
	s.refresh()
	return s
}

// Tree returns the current option tree snapshot.
func (s *Selection[V]) Tree() []Option[V] {
	return s.tree
}

// Path returns a copy of the effective path.
func (s *Selection[V]) Path() []V {
	return clonePath(s.path)
}

// Source reports which layer supplied the effective path.
func (s *Selection[V]) Source() PathSource {
	return s.source
}

// Controlled reports whether an external override is in place.
func (s *Selection[V]) Controlled() bool {
	return s.layers.IsSet(SourceControlled)
}

// Levels returns the level sequence for the effective path. The slice is a
// copy; Option values inside it are shared with the tree.
func (s *Selection[V]) Levels() []Level[V] {
	return slices.Clone(s.levels)
}

// Extend summarises the effective path.
func (s *Selection[V]) Extend() ValueExtend[V] {
	return SummarizeLevels(s.levels, len(s.path))
}

// SelectAt commits value at depth, truncating everything after it. The only
// error is ErrDepthOutOfRange, for depth < 0 or depth > len(path); a path
// cannot skip a level.
func (s *Selection[V]) SelectAt(value V, depth int) (Change[V], error) {
	if err := s.checkDepth(depth); err != nil {
		return Change[V]{}, err
	}
	next := make([]V, depth, depth+1)
	copy(next, s.path[:depth])
	next = append(next, value)
	return s.commit(SourceOwned, next), nil
}

// DeselectAt clears the selection at depth and below. Like SelectAt it only
// fails with ErrDepthOutOfRange.
func (s *Selection[V]) DeselectAt(depth int) (Change[V], error) {
	if err := s.checkDepth(depth); err != nil {
		return Change[V]{}, err
	}
	return s.commit(SourceOwned, clonePath(s.path[:depth])), nil
}

// Reset replaces the owned path programmatically.
func (s *Selection[V]) Reset(path []V) Change[V] {
	return s.commit(SourceOwned, path)
}

// SetControlled installs an external override that wins over the owned path
// until ClearControlled is called.
func (s *Selection[V]) SetControlled(path []V) Change[V] {
	return s.commit(SourceControlled, path)
}

// ClearControlled removes the external override.
func (s *Selection[V]) ClearControlled() Change[V] {
	previous := clonePath(s.path)
	_ = s.layers.Clear(SourceControlled)
	s.refresh()
	return s.change(previous, s.path)
}

// SetTree swaps the option tree snapshot and recomputes levels. The path is
// left untouched.
func (s *Selection[V]) SetTree(tree []Option[V]) []Level[V] {
	s.tree = tree
	s.refresh()
	return s.Levels()
}

func (s *Selection[V]) commit(source PathSource, next []V) Change[V] {
	previous := clonePath(s.path)
	_ = s.layers.Set(source, next)
	s.refresh()
	change := s.change(previous, next)
	change.Committed = source == SourceOwned && s.source == SourceOwned
	return change
}

func (s *Selection[V]) change(previous, committed []V) Change[V] {
	return Change[V]{
		Previous:  previous,
		Path:      clonePath(committed),
		Extend:    Summarize(s.tree, committed),
		Effective: clonePath(s.path),
		Source:    s.source,
		Levels:    s.Levels(),
	}
}

func (s *Selection[V]) refresh() {
	s.path, s.source = s.layers.Effective()
	s.levels = Resolve(s.tree, s.path)
}

func (s *Selection[V]) checkDepth(depth int) error {
	if depth < 0 || depth > len(s.path) {
		return fmt.Errorf("%w: %d (path length %d)", ErrDepthOutOfRange, depth, len(s.path))
	}
	return nil
}
