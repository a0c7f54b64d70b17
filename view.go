package cascader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-cascader/pkg/activity"
	"github.com/google/uuid"
)

// Snapshot is a consistent read of a View.
type Snapshot[V comparable] struct {
	Path        []V            `json:"path"`
	Source      PathSource     `json:"source"`
	Levels      []Level[V]     `json:"levels"`
	ActiveIndex int            `json:"active_index"`
	Extend      ValueExtend[V] `json:"extend"`
}

// View ties a Selection and an ActiveLevel together and delivers change
// notifications. Every input (selection, reset, tree swap, focus) recomputes
// derived state completely before callbacks and hooks run, so listeners always
// observe the committed path together with its summary.
type View[V comparable] struct {
	mu        sync.Mutex
	id        string
	cfg       viewConfig[V]
	selection *Selection[V]
	active    *ActiveLevel
	emitter   *activity.Emitter
}

// New builds a view over tree.
func New[V comparable](tree []Option[V], opts ...ViewOption[V]) *View[V] {
	cfg := applyViewOptions(opts)
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	selection := NewSelection(tree, cfg.defaultValue)
	if cfg.controlled {
		selection.SetControlled(cfg.value)
	}

	return &View[V]{
		id:        id,
		cfg:       cfg,
		selection: selection,
		active:    NewActiveLevel(len(selection.levels)),
		emitter:   newEmitter(cfg),
	}
}

// ID returns the view identifier.
func (v *View[V]) ID() string {
	return v.id
}

// Tree returns the current option tree snapshot.
func (v *View[V]) Tree() []Option[V] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.Tree()
}

// Path returns the effective path.
func (v *View[V]) Path() []V {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.Path()
}

// Levels returns the level sequence for the effective path.
func (v *View[V]) Levels() []Level[V] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.Levels()
}

// ActiveIndex returns the focused level.
func (v *View[V]) ActiveIndex() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active.Index()
}

// Extend summarises the effective path.
func (v *View[V]) Extend() ValueExtend[V] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.Extend()
}

// Controlled reports whether an external value override is in place.
func (v *View[V]) Controlled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.Controlled()
}

// Snapshot returns path, levels, focus and summary read under one lock.
func (v *View[V]) Snapshot() Snapshot[V] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Select commits value at depth, dropping every deeper choice.
func (v *View[V]) Select(ctx context.Context, depth int, value V) error {
	return v.commit(ctx, OpSelect, depth, func() (Change[V], error) {
		return v.selection.SelectAt(value, depth)
	})
}

// Deselect clears the choice at depth and everything below it.
func (v *View[V]) Deselect(ctx context.Context, depth int) error {
	return v.commit(ctx, OpDeselect, depth, func() (Change[V], error) {
		return v.selection.DeselectAt(depth)
	})
}

// Reset replaces the owned path programmatically. The change callback is not
// invoked; the caller already knows the new path.
func (v *View[V]) Reset(ctx context.Context, path []V) error {
	return v.reconcile(ctx, OpReset, func() Change[V] {
		return v.selection.Reset(path)
	})
}

// SetValue installs or updates the controlled path.
func (v *View[V]) SetValue(ctx context.Context, path []V) error {
	return v.reconcile(ctx, OpControlled, func() Change[V] {
		return v.selection.SetControlled(path)
	})
}

// ClearValue drops the controlled path so the owned path shows through.
func (v *View[V]) ClearValue(ctx context.Context) error {
	return v.reconcile(ctx, OpControlled, func() Change[V] {
		return v.selection.ClearControlled()
	})
}

// SetTree swaps the option tree. The path is kept; focus is clamped if the
// level sequence got shorter.
func (v *View[V]) SetTree(ctx context.Context, tree []Option[V]) error {
	start := time.Now()
	v.mu.Lock()
	levels := v.selection.SetTree(tree)
	transitions := v.active.Sync(len(levels), false)
	snap := v.snapshotLocked()
	v.mu.Unlock()

	err := errors.Join(
		v.emitTree(ctx, snap),
		v.emitFocus(ctx, transitions, len(snap.Levels)),
	)
	err = wrapActivityError(err)
	v.log(OpTree, -1, snap, transitions, start, err)
	return err
}

// Focus moves the active level on behalf of the user.
func (v *View[V]) Focus(ctx context.Context, index int) error {
	start := time.Now()
	v.mu.Lock()
	from := v.active.Index()
	t, err := v.active.Focus(index)
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if err != nil {
		v.log(OpFocus, index, snap, nil, start, err)
		return err
	}
	if from == index {
		return nil
	}

	transitions := []Transition{t}
	if v.cfg.onFocusChange != nil {
		v.cfg.onFocusChange(index)
	}
	err = wrapActivityError(v.emitFocus(ctx, transitions, len(snap.Levels)))
	v.log(OpFocus, index, snap, transitions, start, err)
	return err
}

func (v *View[V]) commit(ctx context.Context, op string, depth int, mutate func() (Change[V], error)) error {
	start := time.Now()
	v.mu.Lock()
	change, err := mutate()
	if err != nil {
		snap := v.snapshotLocked()
		v.mu.Unlock()
		v.log(op, depth, snap, nil, start, err)
		return err
	}
	transitions := v.active.Sync(len(change.Levels), change.Refocus())
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if v.cfg.onChange != nil {
		v.cfg.onChange(clonePath(change.Path), change.Extend)
	}
	err = errors.Join(
		v.emitSelection(ctx, depth, change, snap),
		v.emitFocus(ctx, transitions, len(snap.Levels)),
	)
	err = wrapActivityError(err)
	v.log(op, depth, snap, transitions, start, err)
	return err
}

func (v *View[V]) reconcile(ctx context.Context, op string, mutate func() Change[V]) error {
	start := time.Now()
	v.mu.Lock()
	change := mutate()
	transitions := v.active.Sync(len(change.Levels), change.Refocus())
	snap := v.snapshotLocked()
	v.mu.Unlock()

	err := wrapActivityError(v.emitFocus(ctx, transitions, len(snap.Levels)))
	v.log(op, -1, snap, transitions, start, err)
	return err
}

func (v *View[V]) snapshotLocked() Snapshot[V] {
	return Snapshot[V]{
		Path:        v.selection.Path(),
		Source:      v.selection.Source(),
		Levels:      v.selection.Levels(),
		ActiveIndex: v.active.Index(),
		Extend:      v.selection.Extend(),
	}
}

func (v *View[V]) log(op string, depth int, snap Snapshot[V], transitions []Transition, start time.Time, err error) {
	v.cfg.logger.LogEvent(LogEvent{
		Op:          op,
		ViewID:      v.id,
		Depth:       depth,
		Path:        v.formatPath(snap.Path),
		Levels:      len(snap.Levels),
		ActiveIndex: snap.ActiveIndex,
		Transitions: slices.Clone(transitions),
		Duration:    time.Since(start),
		Err:         err,
	})
}

func (v *View[V]) formatPath(path []V) []string {
	out := make([]string, len(path))
	for i, value := range path {
		out[i] = v.cfg.format(value)
	}
	return out
}

func wrapActivityError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cascader: activity: %w", err)
}
