package rules

import "time"

// RuleContext carries the inputs of one rule evaluation. Bindings holds the
// per-option variables (value, label, disabled, pending, leaf, depth, path,
// metadata); Args and Now are shared across a whole Apply pass.
type RuleContext struct {
	Bindings map[string]any
	Now      *time.Time
	Args     map[string]any
	// Rule names the rule being evaluated for errors and logs.
	Rule string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Bindings == nil {
		ctx.Bindings = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx RuleContext) label() string {
	if ctx.Rule != "" {
		return ctx.Rule
	}
	return "unnamed"
}

// environment flattens the context into the variable set exposed to every
// engine.
func (ctx RuleContext) environment() map[string]any {
	env := make(map[string]any, len(ctx.Bindings)+2)
	for key, value := range ctx.Bindings {
		env[key] = value
	}
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// BindingNames lists the per-option variables every engine declares.
var BindingNames = []string{
	"value",
	"label",
	"disabled",
	"pending",
	"leaf",
	"depth",
	"path",
	"metadata",
}
