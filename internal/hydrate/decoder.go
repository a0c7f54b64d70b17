package hydrate

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Context identifies where a payload came from.
type Context struct {
	// Source names the file or flag the payload was read from.
	Source string
	// Section is the top level key holding the decoded value.
	Section string
}

// PreHook rewrites the payload before decoding. Returning nil keeps the
// current payload.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder takes over decoding entirely.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder maps loosely typed settings, as produced by viper, onto T using the
// json struct tags of T.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	configure []func(*mapstructure.DecoderConfig)
	custom    CustomDecoder[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithErrorUnused rejects payload keys that do not map to a field.
func WithErrorUnused[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	})
}

// WithWeaklyTypedInput lets scalars convert between kinds, so a YAML number
// can fill a string value.
func WithWeaklyTypedInput[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(cfg *mapstructure.DecoderConfig) {
		cfg.WeaklyTypedInput = true
	})
}

// WithDecodeHook chains hook after any hook already configured.
func WithDecodeHook[T any](hook mapstructure.DecodeHookFunc) DecoderOption[T] {
	return WithDecoderConfig[T](func(cfg *mapstructure.DecoderConfig) {
		if cfg.DecodeHook == nil {
			cfg.DecodeHook = hook
			return
		}
		cfg.DecodeHook = mapstructure.ComposeDecodeHookFunc(cfg.DecodeHook, hook)
	})
}

// WithDecoderConfig exposes the mapstructure configuration directly. Result
// and TagName are reset after configure runs.
func WithDecoderConfig[T any](configure func(*mapstructure.DecoderConfig)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.configure = append(d.configure, configure)
		}
	}
}

// WithCustomDecoder bypasses mapstructure. Pre and post hooks still run.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// NewDecoder builds a decoder.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs pre hooks, decoding and post hooks in that order. payload is
// never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for source %q", ctx.Source)
	}

	current := cloneMap(payload)
	for i, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: %s: pre-hook %d: %w", ctx.Source, i, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return zero, err
	}

	for i, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: %s: post-hook %d: %w", ctx.Source, i, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	var result T
	if d.custom != nil {
		out, err := d.custom(ctx, payload)
		if err != nil {
			return result, fmt.Errorf("hydrate: %s: custom decoder: %w", ctx.Source, err)
		}
		return out, nil
	}

	cfg := &mapstructure.DecoderConfig{}
	for _, configure := range d.configure {
		configure(cfg)
	}
	cfg.TagName = "json"
	cfg.Result = &result

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return result, fmt.Errorf("hydrate: %s: %w", ctx.Source, err)
	}
	if err := decoder.Decode(payload); err != nil {
		return result, fmt.Errorf("hydrate: decode %s: %w", ctx.Source, err)
	}
	return result, nil
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
