package cascader

import (
	"fmt"

	"github.com/goliatone/go-cascader/pkg/activity"
)

// ViewOption configures a View.
type ViewOption[V comparable] func(*viewConfig[V])

type viewConfig[V comparable] struct {
	id            string
	defaultValue  []V
	value         []V
	controlled    bool
	onChange      func(path []V, extend ValueExtend[V])
	onFocusChange func(index int)
	logger        Logger
	hooks         activity.Hooks
	activity      *activity.Config
	format        func(V) string
}

func applyViewOptions[V comparable](opts []ViewOption[V]) viewConfig[V] {
	cfg := viewConfig[V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.format == nil {
		cfg.format = func(v V) string { return fmt.Sprint(v) }
	}
	return cfg
}

// WithID sets the identifier used as the activity object ID and in log
// events. A random UUID is used when unset.
func WithID[V comparable](id string) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.id = id
	}
}

// WithDefaultValue sets the initial owned path.
func WithDefaultValue[V comparable](path []V) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.defaultValue = clonePath(path)
	}
}

// WithValue makes the view controlled: path wins over the owned path until
// ClearValue is called. Selections still reach the change callback, which is
// expected to feed the new path back through SetValue.
func WithValue[V comparable](path []V) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.value = clonePath(path)
		cfg.controlled = true
	}
}

// WithOnChange registers the callback invoked after every committed
// selection with the new path and its summary.
func WithOnChange[V comparable](fn func(path []V, extend ValueExtend[V])) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.onChange = fn
	}
}

// WithOnFocusChange registers the callback invoked when the user moves focus
// to another level. Reactive re-synchronisation does not invoke it.
func WithOnFocusChange[V comparable](fn func(index int)) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.onFocusChange = fn
	}
}

// WithLogger attaches a logger. A nil logger disables logging.
func WithLogger[V comparable](logger Logger) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithValueFormatter controls how path values are rendered into log and
// activity payloads. fmt.Sprint is used by default.
func WithValueFormatter[V comparable](format func(V) string) ViewOption[V] {
	return func(cfg *viewConfig[V]) {
		cfg.format = format
	}
}
