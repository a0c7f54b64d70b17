package activity

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Event is one picker occurrence as seen by hooks. Identity fields are plain
// strings; sinks parse them into whatever ID type they store.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Routable reports whether the event carries the fields hooks key on.
func (e Event) Routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Only wraps hook so it sees the listed verbs and nothing else.
func Only(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := make([]string, 0, len(verbs))
	for _, verb := range verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			allowed = append(allowed, verb)
		}
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil || !slices.Contains(allowed, event.Verb) {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// Hooks is an ordered fan-out list.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Compact drops nil entries. The result never aliases h and is nil when
// nothing is left.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify delivers the normalized event to every hook in order. Unroutable
// events are dropped. A failing hook does not stop delivery; every failure is
// part of the joined error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = NormalizeEvent(event)
	if len(h) == 0 || !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims string fields, copies metadata and recipients, and
// stamps OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel, &event.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if len(event.Recipients) == 0 {
		event.Recipients = nil
	} else {
		event.Recipients = slices.Clone(event.Recipients)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
