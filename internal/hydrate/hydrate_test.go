package hydrate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	cascader "github.com/goliatone/go-cascader"
)

func TestTreeFromFixtures(t *testing.T) {
	fx := loadFixture(t, "trees.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			ctx := Context{Source: tc.Source, Section: tc.Section}
			tree, err := Tree[string](ctx, tc.Input, buildOptions(tc)...)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				if !strings.Contains(err.Error(), tc.Source) {
					t.Fatalf("expected error to name source %q, got %v", tc.Source, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, tree) {
				t.Fatalf("decoded tree mismatch:\nwant: %#v\n got: %#v", tc.Expect, tree)
			}
		})
	}
}

func TestTreeMissingSectionIsSentinel(t *testing.T) {
	_, err := Tree[string](Context{Source: "x.yaml"}, map[string]any{})
	if !errors.Is(err, ErrMissingSection) {
		t.Fatalf("expected ErrMissingSection, got %v", err)
	}
}

func TestDecoderDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{
		"tree": []any{map[string]any{"value": "zhejiang"}},
	}
	if _, err := Tree[string](Context{Source: "inline"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	item := payload["tree"].([]any)[0].(map[string]any)
	if _, ok := item["label"]; ok {
		t.Fatalf("payload should stay untouched, got %v", item)
	}
}

func TestDecoderHooksRunInOrder(t *testing.T) {
	var order []string
	decoder := NewTreeDecoder[string](
		WithPreHook[TreeDocument[string]](func(_ Context, payload map[string]any) (map[string]any, error) {
			order = append(order, "pre")
			return payload, nil
		}),
		WithPostHook[TreeDocument[string]](func(_ Context, doc *TreeDocument[string]) error {
			order = append(order, "post:"+doc.Tree[0].Label)
			return nil
		}),
	)
	if _, err := decoder.Decode(Context{Source: "inline"}, map[string]any{
		"tree": []any{map[string]any{"value": "jiangsu"}},
	}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"pre", "post:jiangsu"}) {
		t.Fatalf("unexpected hook order %v", order)
	}
}

func TestCustomDecoderReplacesMapstructure(t *testing.T) {
	decoder := NewDecoder[TreeDocument[string]](
		WithCustomDecoder[TreeDocument[string]](func(_ Context, payload map[string]any) (TreeDocument[string], error) {
			raw, _ := payload["csv"].(string)
			var doc TreeDocument[string]
			for _, value := range strings.Split(raw, ",") {
				doc.Tree = append(doc.Tree, cascader.Option[string]{Value: value, Label: strings.ToUpper(value)})
			}
			return doc, nil
		}),
	)
	doc, err := decoder.Decode(Context{Source: "flag"}, map[string]any{"csv": "a,b"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Tree) != 2 || doc.Tree[1].Label != "B" {
		t.Fatalf("unexpected tree %+v", doc.Tree)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[TreeDocument[string]]().Decode(Context{Source: "nil"}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[TreeDocument[string]] {
	options := []DecoderOption[TreeDocument[string]]{}
	for _, optName := range tc.Options {
		switch optName {
		case "weak":
			options = append(options, WithWeaklyTypedInput[TreeDocument[string]]())
		case "error_unused":
			options = append(options, WithErrorUnused[TreeDocument[string]]())
		}
	}
	return options
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string                    `json:"name"`
	Source    string                    `json:"source"`
	Section   string                    `json:"section"`
	Input     map[string]any            `json:"input"`
	Expect    []cascader.Option[string] `json:"expect"`
	ExpectErr string                    `json:"expectErr"`
	Options   []string                  `json:"options"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
