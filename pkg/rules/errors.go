package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvaluator indicates an engine was built without a usable evaluator.
	ErrNoEvaluator = errors.New("rules: evaluator not configured")
	// ErrRuleNotBoolean indicates an expression produced a non boolean value.
	ErrRuleNotBoolean = errors.New("rules: expression must evaluate to a boolean")
	// ErrUnknownEffect indicates a rule effect outside disable/hide/pending.
	ErrUnknownEffect = errors.New("rules: unknown effect")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Rule   string
	// Path renders the option path the rule was evaluated for.
	Path string
	Err  error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("rules: %s evaluator %s rule=%s", e.Engine, describeExpression(e.Expr), e.Rule)
	if e.Path != "" {
		msg += " path=" + e.Path
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "rules:") {
		return err
	}
	return fmt.Errorf("rules: %s evaluator: %w", engine, err)
}

// wrapEvaluationError fills missing metadata on an existing EvaluationError
// or wraps err in a new one.
func wrapEvaluationError(engine, expr, rule string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Rule == "" {
			evalErr.Rule = rule
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Rule:   rule,
		Err:    err,
	}
}

// ErrMalformedRule indicates a rule string without an effect prefix or body.
var ErrMalformedRule = errors.New("rules: rule must be written as effect:expression")

func withPath(err error, path string) error {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) && evalErr.Path == "" {
		evalErr.Path = path
	}
	return err
}
