package hydrate

import (
	"errors"
	"fmt"
	"strings"

	cascader "github.com/goliatone/go-cascader"
)

// DefaultSection is the settings key read when Context.Section is empty.
const DefaultSection = "tree"

// ErrMissingSection indicates the settings carry no tree under the section.
var ErrMissingSection = errors.New("hydrate: tree section missing")

// TreeDocument is the decoded shape of a tree section.
type TreeDocument[V comparable] struct {
	Tree []cascader.Option[V] `json:"tree"`
}

// NewTreeDecoder returns a decoder that picks the tree section out of a
// settings map, rejects options without a value and fills empty labels from
// the value. opts run after those built-in hooks.
func NewTreeDecoder[V comparable](opts ...DecoderOption[TreeDocument[V]]) *Decoder[TreeDocument[V]] {
	base := []DecoderOption[TreeDocument[V]]{
		WithPreHook[TreeDocument[V]](selectSection),
		WithPostHook[TreeDocument[V]](requireValues[V]),
		WithPostHook[TreeDocument[V]](defaultLabels[V]),
	}
	return NewDecoder[TreeDocument[V]](append(base, opts...)...)
}

// Tree decodes the option tree stored in settings.
func Tree[V comparable](ctx Context, settings map[string]any, opts ...DecoderOption[TreeDocument[V]]) ([]cascader.Option[V], error) {
	doc, err := NewTreeDecoder(opts...).Decode(ctx, settings)
	if err != nil {
		return nil, err
	}
	return doc.Tree, nil
}

func selectSection(ctx Context, payload map[string]any) (map[string]any, error) {
	section := ctx.Section
	if section == "" {
		section = DefaultSection
	}
	raw, ok := payload[section]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingSection, section)
	}
	return map[string]any{"tree": raw}, nil
}

func requireValues[V comparable](_ Context, doc *TreeDocument[V]) error {
	return walk(doc.Tree, nil, func(option *cascader.Option[V], path []string) error {
		if s, ok := any(option.Value).(string); ok && strings.TrimSpace(s) == "" {
			return fmt.Errorf("option at %q has no value", strings.Join(path, "/"))
		}
		return nil
	})
}

func defaultLabels[V comparable](_ Context, doc *TreeDocument[V]) error {
	return walk(doc.Tree, nil, func(option *cascader.Option[V], _ []string) error {
		if option.Label == "" {
			option.Label = fmt.Sprint(option.Value)
		}
		return nil
	})
}

func walk[V comparable](options []cascader.Option[V], parent []string, fn func(*cascader.Option[V], []string) error) error {
	for i := range options {
		path := append(append([]string{}, parent...), fmt.Sprint(options[i].Value))
		if err := fn(&options[i], path); err != nil {
			return err
		}
		if err := walk(options[i].Children, path, fn); err != nil {
			return err
		}
	}
	return nil
}
