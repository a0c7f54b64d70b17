package rules

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	cascader "github.com/goliatone/go-cascader"
)

// Effect is what a matching rule does to an option.
type Effect string

const (
	// EffectDisable marks the option disabled. It stays selectable by path.
	EffectDisable Effect = "disable"
	// EffectHide removes the option and its subtree.
	EffectHide Effect = "hide"
	// EffectPending marks the option as awaiting children.
	EffectPending Effect = "pending"
)

// Valid reports whether e is a known effect.
func (e Effect) Valid() bool {
	switch e {
	case EffectDisable, EffectHide, EffectPending:
		return true
	}
	return false
}

// Rule pairs a boolean expression with the effect applied when it holds.
type Rule struct {
	Name   string `json:"name,omitempty" mapstructure:"name"`
	Expr   string `json:"expr" mapstructure:"expr"`
	Effect Effect `json:"effect" mapstructure:"effect"`
}

// ParseRule reads the "effect:expression" shorthand, e.g.
// "hide:metadata.retired == true".
func ParseRule(raw string) (Rule, error) {
	effect, expr, ok := strings.Cut(raw, ":")
	expr = strings.TrimSpace(expr)
	if !ok || expr == "" {
		return Rule{}, fmt.Errorf("%w: %q", ErrMalformedRule, raw)
	}
	rule := Rule{
		Expr:   expr,
		Effect: Effect(strings.ToLower(strings.TrimSpace(effect))),
	}
	if !rule.Effect.Valid() {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownEffect, effect)
	}
	return rule, nil
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEvaluator replaces the default expr evaluator. A nil evaluator makes
// every Apply call fail with ErrNoEvaluator.
func WithEvaluator(evaluator Evaluator) EngineOption {
	return func(e *Engine) {
		e.evaluator = evaluator
		e.explicit = true
	}
}

// WithProgramCache sets the cache handed to the default evaluator.
func WithProgramCache(cache ProgramCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithFunctionRegistry sets the functions handed to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) EngineOption {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithLogger records every evaluation.
func WithLogger(logger EvaluatorLogger) EngineOption {
	return func(e *Engine) {
		if logger == nil {
			logger = noopEvaluatorLogger{}
		}
		e.logger = logger
	}
}

// WithArgs exposes args to every expression as the args variable.
func WithArgs(args map[string]any) EngineOption {
	return func(e *Engine) {
		e.args = args
	}
}

// WithClock overrides the source of the now variable.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// Engine applies rules to option trees.
type Engine struct {
	evaluator Evaluator
	explicit  bool
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	args      map[string]any
	clock     func() time.Time
}

// NewEngine builds an engine. Without WithEvaluator it uses expr with an
// in-memory program cache and the Builtins registry.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: noopEvaluatorLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if !e.explicit {
		if e.cache == nil {
			e.cache = NewMemoryCache()
		}
		if e.registry == nil {
			e.registry = Builtins()
		}
		e.evaluator = NewExprEvaluator(
			ExprWithProgramCache(e.cache),
			ExprWithFunctionRegistry(e.registry),
		)
	}
	return e
}

// Name reports the evaluator backing the engine.
func (e *Engine) Name() string {
	return evaluatorEngineName(e.evaluator)
}

// Validate compiles every rule without applying it.
func (e *Engine) Validate(rules ...Rule) error {
	_, err := e.compile(rules)
	return err
}

type compiledRule struct {
	Rule
	label   string
	program CompiledRule
}

func (e *Engine) compile(rules []Rule) ([]compiledRule, error) {
	if e.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	out := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if !rule.Effect.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, rule.Effect)
		}
		label := rule.Name
		if label == "" {
			label = fmt.Sprintf("%s[%d]", rule.Effect, i)
		}
		program, err := e.evaluator.Compile(rule.Expr)
		if err != nil {
			return nil, wrapEvaluationError(e.Name(), rule.Expr, label, err)
		}
		out = append(out, compiledRule{Rule: rule, label: label, program: program})
	}
	return out, nil
}

// Apply evaluates rules against every option of tree and returns a new tree
// with the effects applied. Bindings are taken from each option as given, so
// rule order never changes which rules match. Hidden options drop their whole
// subtree. The input tree is not modified.
func Apply[V comparable](e *Engine, tree []cascader.Option[V], rules ...Rule) ([]cascader.Option[V], error) {
	if len(rules) == 0 {
		return cascader.Clone(tree), nil
	}
	compiled, err := e.compile(rules)
	if err != nil {
		return nil, err
	}
	pass := applyPass[V]{engine: e, rules: compiled, now: e.clock()}
	return pass.level(tree, nil)
}

type applyPass[V comparable] struct {
	engine *Engine
	rules  []compiledRule
	now    time.Time
}

func (p applyPass[V]) level(options []cascader.Option[V], parent []any) ([]cascader.Option[V], error) {
	out := make([]cascader.Option[V], 0, len(options))
	for _, option := range options {
		path := make([]any, len(parent), len(parent)+1)
		copy(path, parent)
		path = append(path, bindingValue(option.Value))

		hidden, err := p.evaluate(&option, path)
		if err != nil {
			return nil, err
		}
		if hidden {
			continue
		}
		if len(option.Children) > 0 {
			children, err := p.level(option.Children, path)
			if err != nil {
				return nil, err
			}
			option.Children = children
		}
		option.Metadata = cascader.CloneMetadata(option.Metadata)
		out = append(out, option)
	}
	return out, nil
}

func (p applyPass[V]) evaluate(option *cascader.Option[V], path []any) (bool, error) {
	bindings := optionBindings(*option, path)
	label := formatPath(path)
	for _, rule := range p.rules {
		matched, err := p.engine.run(rule, bindings, label, p.now)
		if err != nil {
			return false, err
		}
		if !matched {
			continue
		}
		switch rule.Effect {
		case EffectHide:
			return true, nil
		case EffectDisable:
			option.Disabled = true
		case EffectPending:
			option.Pending = true
		}
	}
	return false, nil
}

func (e *Engine) run(rule compiledRule, bindings map[string]any, path string, now time.Time) (bool, error) {
	ctx := RuleContext{Bindings: bindings, Now: &now, Args: e.args, Rule: rule.label}
	start := time.Now()
	value, err := rule.program.Evaluate(ctx)
	matched, isBool := value.(bool)
	if err == nil && !isBool {
		err = fmt.Errorf("%w: got %T", ErrRuleNotBoolean, value)
	}
	if err != nil {
		err = withPath(wrapEvaluationError(e.Name(), rule.Expr, rule.label, err), path)
	}
	e.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   e.Name(),
		Expr:     rule.Expr,
		Rule:     rule.label,
		Path:     path,
		Duration: time.Since(start),
		Result:   value,
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func optionBindings[V comparable](option cascader.Option[V], path []any) map[string]any {
	metadata := option.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]any{
		"value":    bindingValue(option.Value),
		"label":    option.Label,
		"disabled": option.Disabled,
		"pending":  option.Pending,
		"leaf":     option.IsLeaf(),
		"depth":    len(path) - 1,
		"path":     path,
		"metadata": metadata,
	}
}

// bindingValue unwraps named scalar types so every evaluator sees plain
// strings, integers, floats and booleans.
func bindingValue(value any) any {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Invalid:
		return nil
	}
	return fmt.Sprint(value)
}

func formatPath(path []any) string {
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "/")
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*rules.exprEvaluator":
		return "expr"
	case "*rules.celEvaluator":
		return "cel"
	case "*rules.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
