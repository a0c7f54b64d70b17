package cascader

import (
	"context"
	"errors"

	"github.com/goliatone/go-cascader/pkg/activity"
)

// WithActivityHooks attaches activity hooks. Nil entries are dropped and the
// slice is copied so later caller mutations do not leak in.
func WithActivityHooks[V comparable](hooks activity.Hooks) ViewOption[V] {
	normalized := hooks.Compact()
	return func(cfg *viewConfig[V]) {
		cfg.hooks = normalized
	}
}

// WithActivityConfig overrides emission defaults. Without it, emission is
// enabled whenever hooks are configured.
func WithActivityConfig[V comparable](config activity.Config) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		c := config
		cfg.activity = &c
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (v *View[V]) ActivityHooks() activity.Hooks {
	if v == nil {
		return nil
	}
	return v.cfg.hooks.Compact()
}

func newEmitter[V comparable](cfg viewConfig[V]) *activity.Emitter {
	config := activity.Config{Enabled: true}
	if cfg.activity != nil {
		config = *cfg.activity
	}
	return activity.NewEmitter(cfg.hooks, config)
}

func (v *View[V]) emitSelection(ctx context.Context, depth int, change Change[V], snap Snapshot[V]) error {
	if !v.emitter.Enabled() {
		return nil
	}
	event := activity.BuildSelectionChangedEvent(activity.ViewEventInput{
		ObjectID:     v.id,
		Path:         v.formatPath(change.Path),
		PreviousPath: v.formatPath(change.Previous),
		Depth:        depth,
		Leaf:         change.Extend.IsLeaf,
		Source:       string(change.Source),
		Levels:       len(snap.Levels),
		ActiveIndex:  snap.ActiveIndex,
	})
	return v.emitter.Emit(ctx, event)
}

func (v *View[V]) emitFocus(ctx context.Context, transitions []Transition, levels int) error {
	if !v.emitter.Enabled() {
		return nil
	}
	var errs []error
	for _, t := range transitions {
		event := activity.BuildFocusChangedEvent(activity.ViewEventInput{
			ObjectID:      v.id,
			ActiveIndex:   t.To,
			PreviousFocus: t.From,
			Levels:        levels,
			Rule:          string(t.Rule),
		})
		if err := v.emitter.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (v *View[V]) emitTree(ctx context.Context, snap Snapshot[V]) error {
	if !v.emitter.Enabled() {
		return nil
	}
	event := activity.BuildTreeReplacedEvent(activity.ViewEventInput{
		ObjectID:    v.id,
		Path:        v.formatPath(snap.Path),
		Levels:      len(snap.Levels),
		ActiveIndex: snap.ActiveIndex,
	})
	return v.emitter.Emit(ctx, event)
}
