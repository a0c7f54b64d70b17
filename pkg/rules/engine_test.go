package rules

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cascader "github.com/goliatone/go-cascader"
	"github.com/google/go-cmp/cmp"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
}

type applyExpect struct {
	Visible  []string `json:"visible"`
	Disabled []string `json:"disabled"`
	Pending  []string `json:"pending"`
}

type applyCase struct {
	Name   string      `json:"name"`
	Rules  []Rule      `json:"rules"`
	Expect applyExpect `json:"expect"`
}

type applyFixture struct {
	Description string                    `json:"description"`
	Args        map[string]any            `json:"args"`
	Tree        []cascader.Option[string] `json:"tree"`
	Cases       []applyCase               `json:"cases"`
}

func TestApplyRulesAcrossEvaluators(t *testing.T) {
	fx := loadFixture[applyFixture](t, "apply_rules.json")

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			engine := NewEngine(
				WithEvaluator(factory.new(NewMemoryCache(), Builtins())),
				WithArgs(fx.Args),
			)
			if got := engine.Name(); got != factory.name {
				t.Fatalf("expected engine name %q, got %q", factory.name, got)
			}

			for _, tc := range fx.Cases {
				tc := tc
				t.Run(tc.Name, func(t *testing.T) {
					out, err := Apply(engine, fx.Tree, tc.Rules...)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					got := collectPaths(out)
					if diff := cmp.Diff(tc.Expect, got); diff != "" {
						t.Fatalf("effects mismatch (-want +got):\n%s", diff)
					}
				})
			}
		})
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	fx := loadFixture[applyFixture](t, "apply_rules.json")
	before := cascader.Clone(fx.Tree)

	engine := NewEngine(WithArgs(fx.Args))
	if _, err := Apply(engine, fx.Tree,
		Rule{Effect: EffectDisable, Expr: "true"},
		Rule{Effect: EffectPending, Expr: "leaf"},
		Rule{Effect: EffectHide, Expr: "metadata.retired == true"},
	); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(before, fx.Tree); diff != "" {
		t.Fatalf("input tree mutated (-before +after):\n%s", diff)
	}
}

func TestApplyWithoutRulesReturnsCopy(t *testing.T) {
	tree := []cascader.Option[string]{{Value: "a", Label: "A", Metadata: map[string]any{"k": 1}}}
	out, err := Apply(NewEngine(), tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out[0].Metadata["k"] = 2
	if tree[0].Metadata["k"] != 1 {
		t.Fatalf("expected metadata to be copied")
	}
}

func TestApplyCopiesMetadataLikeClone(t *testing.T) {
	tree := []cascader.Option[string]{
		{Value: "a", Metadata: map[string]any{}, Children: []cascader.Option[string]{
			{Value: "b", Metadata: map[string]any{"k": 1}},
		}},
	}
	out, err := Apply(NewEngine(), tree, Rule{Effect: EffectDisable, Expr: "false"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(cascader.Clone(tree), out); diff != "" {
		t.Fatalf("rules pass and Clone disagree (-clone +apply):\n%s", diff)
	}
	if out[0].Metadata != nil {
		t.Fatalf("empty metadata should copy to nil, got %#v", out[0].Metadata)
	}
	out[0].Children[0].Metadata["k"] = 2
	if tree[0].Children[0].Metadata["k"] != 1 {
		t.Fatalf("expected metadata to be copied")
	}
}

func TestApplyRejectsNonBooleanResult(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			engine := NewEngine(WithEvaluator(factory.new(nil, nil)))
			tree := []cascader.Option[string]{{Value: "zhejiang", Label: "Zhejiang"}}

			_, err := Apply(engine, tree, Rule{Effect: EffectDisable, Expr: "label"})
			if !errors.Is(err, ErrRuleNotBoolean) {
				t.Fatalf("expected ErrRuleNotBoolean, got %v", err)
			}
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %T", err)
			}
			if evalErr.Path != "zhejiang" || evalErr.Rule != "disable[0]" || evalErr.Engine != factory.name {
				t.Fatalf("unexpected error metadata: %+v", evalErr)
			}
		})
	}
}

func TestApplyReportsCompileErrors(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			engine := NewEngine(WithEvaluator(factory.new(nil, nil)))
			err := engine.Validate(Rule{Name: "broken", Effect: EffectHide, Expr: "value ==="})
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %v", err)
			}
			if evalErr.Rule != "broken" || evalErr.Expr != "value ===" {
				t.Fatalf("unexpected error metadata: %+v", evalErr)
			}
		})
	}
}

func TestApplyRejectsUnknownEffect(t *testing.T) {
	_, err := Apply(NewEngine(), []cascader.Option[string]{{Value: "a"}}, Rule{Effect: "explode", Expr: "true"})
	if !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("expected ErrUnknownEffect, got %v", err)
	}
}

func TestApplyWithoutEvaluator(t *testing.T) {
	engine := NewEngine(WithEvaluator(nil))
	_, err := Apply(engine, []cascader.Option[string]{{Value: "a"}}, Rule{Effect: EffectHide, Expr: "true"})
	if !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if engine.Name() != "unknown" {
		t.Fatalf("expected unknown engine name, got %q", engine.Name())
	}
}

type regionID string

func TestApplyUnwrapsNamedValueTypes(t *testing.T) {
	tree := []cascader.Option[regionID]{
		{Value: "east", Label: "East"},
		{Value: "west", Label: "West"},
	}
	out, err := Apply(NewEngine(), tree, Rule{Effect: EffectHide, Expr: `value == "west"`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Value != "east" {
		t.Fatalf("expected only east to remain, got %+v", out)
	}
}

func TestApplyUsesEngineClock(t *testing.T) {
	fixed := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	registry := Builtins()
	if err := registry.Register("year", func(args ...any) (any, error) {
		now, ok := args[0].(time.Time)
		if !ok {
			return nil, errors.New("year expects a time")
		}
		return now.Year(), nil
	}); err != nil {
		t.Fatalf("register year: %v", err)
	}
	engine := NewEngine(
		WithClock(func() time.Time { return fixed }),
		WithFunctionRegistry(registry),
	)
	tree := []cascader.Option[string]{{Value: "2023"}, {Value: "2024"}}

	out, err := Apply(engine, tree, Rule{Effect: EffectDisable, Expr: `value == "2024" && year(now) == 2024`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Disabled || !out[1].Disabled {
		t.Fatalf("expected only 2024 disabled, got %+v", out)
	}
}

func TestEngineLogsEachEvaluation(t *testing.T) {
	var events []EvaluatorLogEvent
	engine := NewEngine(WithLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})))
	tree := []cascader.Option[string]{
		{Value: "a", Children: []cascader.Option[string]{{Value: "b"}}},
	}

	if _, err := Apply(engine, tree,
		Rule{Name: "never", Effect: EffectHide, Expr: "false"},
		Rule{Name: "deep", Effect: EffectDisable, Expr: "depth > 0"},
	); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 evaluations, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Engine != "expr" || last.Rule != "deep" || last.Path != "a/b" || last.Result != true {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestEvaluatorProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			evaluator := factory.new(cache, nil)
			for i := 0; i < 3; i++ {
				if _, err := evaluator.Evaluate(RuleContext{Bindings: map[string]any{"depth": 1}}, "depth == 1"); err != nil {
					t.Fatalf("unexpected error on iteration %d: %v", i, err)
				}
			}
			if cache.misses != 1 || cache.hits != 2 {
				t.Fatalf("expected 1 miss and 2 hits, got %d misses and %d hits", cache.misses, cache.hits)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule(" Hide : metadata.retired == true ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Rule{Effect: EffectHide, Expr: "metadata.retired == true"}
	if rule != want {
		t.Fatalf("expected %+v, got %+v", want, rule)
	}

	if _, err := ParseRule("metadata.retired"); !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule, got %v", err)
	}
	if _, err := ParseRule("hide:   "); !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule for empty body, got %v", err)
	}
	if _, err := ParseRule("remove:true"); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("expected ErrUnknownEffect, got %v", err)
	}
}

func collectPaths(tree []cascader.Option[string]) applyExpect {
	out := applyExpect{Visible: []string{}, Disabled: []string{}, Pending: []string{}}
	var walk func(options []cascader.Option[string], prefix []string)
	walk = func(options []cascader.Option[string], prefix []string) {
		for _, option := range options {
			path := append(append([]string{}, prefix...), option.Value)
			key := strings.Join(path, "/")
			out.Visible = append(out.Visible, key)
			if option.Disabled {
				out.Disabled = append(out.Disabled, key)
			}
			if option.Pending {
				out.Pending = append(out.Pending, key)
			}
			walk(option.Children, path)
		}
	}
	walk(tree, nil)
	return out
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	payload, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return out
}

type fakeProgramCache struct {
	store  map[string]any
	hits   int
	misses int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	value, ok := c.store[key]
	if ok {
		c.hits++
		return value, true
	}
	c.misses++
	return nil, false
}

func (c *fakeProgramCache) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}
