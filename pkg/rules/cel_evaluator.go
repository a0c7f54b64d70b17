package rules

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are declared with one to three dynamic arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

const celMaxArity = 3

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	env      *celgo.Env
	envErr   error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	compiled, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{
		program:    program,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.envErr != nil {
		return nil, wrapEvaluatorError("cel", e.envErr)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	checked, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	program, err := e.env.Program(checked)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, name := range BindingNames {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			opts = append(opts, celgo.Function(name, e.overloads(name)...))
		}
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) overloads(name string) []celgo.FunctionOpt {
	binding := e.callBinding(name)
	out := make([]celgo.FunctionOpt, 0, celMaxArity)
	for arity := 1; arity <= celMaxArity; arity++ {
		params := make([]*celgo.Type, arity)
		for i := range params {
			params[i] = celgo.DynType
		}
		out = append(out, celgo.Overload(
			fmt.Sprintf("%s_dyn_%d", name, arity),
			params,
			celgo.DynType,
			celgo.FunctionBinding(binding),
		))
	}
	return out
}

func (e *celEvaluator) callBinding(name string) func(values ...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, nativeValue(val))
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	out, _, err := r.program.Eval(activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.label(), err)
	}
	return out.Value(), nil
}

// activation exposes every declared variable, filling absent bindings with
// null so programs never see an unbound name.
func activation(ctx RuleContext) map[string]any {
	env := ctx.environment()
	out := make(map[string]any, len(BindingNames)+2)
	for _, name := range BindingNames {
		value, ok := env[name]
		if !ok || value == nil {
			out[name] = types.NullValue
			continue
		}
		out[name] = value
	}
	out["now"] = env["now"]
	out["args"] = env["args"]
	return out
}

var (
	anySliceType = reflect.TypeOf([]any{})
	anyMapType   = reflect.TypeOf(map[string]any{})
)

func nativeValue(val ref.Val) any {
	switch v := val.(type) {
	case traits.Lister:
		if native, err := v.ConvertToNative(anySliceType); err == nil {
			return native
		}
	case traits.Mapper:
		if native, err := v.ConvertToNative(anyMapType); err == nil {
			return native
		}
	}
	return val.Value()
}
