// Package cli implements the cascader command: it loads a tree, applies
// rules, replays selections against a view and prints the resulting state.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	cascader "github.com/goliatone/go-cascader"
	"github.com/goliatone/go-cascader/internal/config"
	"github.com/goliatone/go-cascader/pkg/activity"
	"github.com/goliatone/go-cascader/pkg/logging"
	"github.com/goliatone/go-cascader/pkg/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// ErrBadSelect indicates a --select value not shaped like depth=value.
var ErrBadSelect = errors.New("cli: --select expects depth=value")

// Output is the JSON document written to stdout.
type Output struct {
	cascader.Snapshot[string]
	ViewID string                    `json:"view_id"`
	Titles []string                  `json:"titles"`
	Events []string                  `json:"events,omitempty"`
	Trace  *cascader.Trace[string]   `json:"trace,omitempty"`
	Tree   []cascader.Option[string] `json:"tree,omitempty"`
}

type selectOp struct {
	depth int
	value string
}

type options struct {
	configPath string
	selects    []selectOp
	deselect   []int
	focus      int
	trace      bool
	showTree   bool
	rules      []rules.Rule
}

// Run executes the command with args (without the program name).
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("cascader", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "tree and settings file (yaml, json or toml)")
	flags.StringSlice("path", nil, "initial path, comma separated")
	flags.String("view-id", "", "view identifier")
	flags.String("placeholder", "", "title for levels without a selection")
	flags.String("engine", "", "rule engine: expr, cel or js")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: text or json")
	rawSelects := flags.StringArray("select", nil, "select value at depth, as depth=value (repeatable)")
	deselect := flags.IntSlice("deselect", nil, "clear the selection at depth after all selects")
	focus := flags.Int("focus", -1, "focus a level after all selections")
	trace := flags.Bool("trace", false, "include the resolution trace")
	showTree := flags.Bool("show-tree", false, "include the tree after rules were applied")
	rawRules := flags.StringArray("rule", nil, "extra rule as effect:expression (repeatable)")

	if err := flags.Parse(args); err != nil {
		return err
	}

	opts := options{
		configPath: *configPath,
		deselect:   *deselect,
		focus:      *focus,
		trace:      *trace,
		showTree:   *showTree,
	}
	for _, raw := range *rawSelects {
		op, err := parseSelect(raw)
		if err != nil {
			return err
		}
		opts.selects = append(opts.selects, op)
	}
	for _, raw := range *rawRules {
		rule, err := rules.ParseRule(raw)
		if err != nil {
			return err
		}
		opts.rules = append(opts.rules, rule)
	}

	cfg, err := config.Load(opts.configPath, flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	out, err := execute(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func execute(ctx context.Context, cfg *config.Config, opts options, logger *log.Logger) (*Output, error) {
	engine, err := newEngine(cfg.Engine, logger)
	if err != nil {
		return nil, err
	}
	ruleSet := append(append([]rules.Rule{}, cfg.Rules...), opts.rules...)
	tree, err := rules.Apply(engine, cfg.Tree, ruleSet...)
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"engine": engine.Name(),
		"rules":  len(ruleSet),
		"roots":  len(tree),
	}).Debug("tree prepared")

	capture := &activity.CaptureHook{}
	viewOpts := []cascader.ViewOption[string]{
		cascader.WithDefaultValue(cfg.View.Path),
		cascader.WithLogger[string](logging.Logrus(logger)),
		cascader.WithActivityHooks[string](activity.Hooks{capture, logActivity(logger)}),
		cascader.WithOnChange(func(path []string, extend cascader.ValueExtend[string]) {
			logger.WithFields(log.Fields{
				"path": strings.Join(path, "/"),
				"leaf": extend.IsLeaf,
			}).Info("selection changed")
		}),
	}
	if cfg.View.ID != "" {
		viewOpts = append(viewOpts, cascader.WithID[string](cfg.View.ID))
	}
	view := cascader.New(tree, viewOpts...)

	for _, op := range opts.selects {
		if err := view.Select(ctx, op.depth, op.value); err != nil {
			return nil, fmt.Errorf("select %d=%s: %w", op.depth, op.value, err)
		}
	}
	for _, depth := range opts.deselect {
		if err := view.Deselect(ctx, depth); err != nil {
			return nil, fmt.Errorf("deselect %d: %w", depth, err)
		}
	}
	if opts.focus >= 0 {
		if err := view.Focus(ctx, opts.focus); err != nil {
			return nil, fmt.Errorf("focus %d: %w", opts.focus, err)
		}
	}

	snap := view.Snapshot()
	out := &Output{
		Snapshot: snap,
		ViewID:   view.ID(),
		Titles:   make([]string, len(snap.Levels)),
		Events:   capture.Verbs(),
	}
	for i, level := range snap.Levels {
		out.Titles[i] = level.Title(cfg.View.Placeholder)
	}
	if opts.trace {
		_, trace := cascader.ResolveWithTrace(view.Tree(), snap.Path)
		out.Trace = &trace
	}
	if opts.showTree {
		out.Tree = view.Tree()
	}
	return out, nil
}

func newEngine(cfg config.EngineConfig, logger *log.Logger) (*rules.Engine, error) {
	opts := []rules.EngineOption{
		rules.WithArgs(cfg.Args),
		rules.WithLogger(logging.Evaluations(logger)),
	}
	switch strings.ToLower(cfg.Name) {
	case "", "expr":
	case "cel":
		opts = append(opts, rules.WithEvaluator(rules.NewCELEvaluator(
			rules.CELWithProgramCache(rules.NewMemoryCache()),
			rules.CELWithFunctionRegistry(rules.Builtins()),
		)))
	case "js":
		if !rules.JSAvailable() {
			return nil, fmt.Errorf("cli: js engine requires a build with the js_eval tag")
		}
		opts = append(opts, rules.WithEvaluator(rules.NewJSEvaluator(
			rules.JSWithProgramCache(rules.NewMemoryCache()),
			rules.JSWithFunctionRegistry(rules.Builtins()),
		)))
	default:
		return nil, fmt.Errorf("cli: unknown engine %q", cfg.Name)
	}
	return rules.NewEngine(opts...), nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(out)
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	logger.SetLevel(level)
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("cli: unknown log format %q", cfg.Format)
	}
	return logger, nil
}

func logActivity(logger *log.Logger) activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.WithFields(log.Fields{
			"verb":   event.Verb,
			"object": event.ObjectID,
		}).Debug("activity")
		return nil
	})
}

func parseSelect(raw string) (selectOp, error) {
	depthText, value, ok := strings.Cut(raw, "=")
	if !ok {
		return selectOp{}, fmt.Errorf("%w: %q", ErrBadSelect, raw)
	}
	depth, err := strconv.Atoi(strings.TrimSpace(depthText))
	if err != nil {
		return selectOp{}, fmt.Errorf("%w: %q", ErrBadSelect, raw)
	}
	return selectOp{depth: depth, value: value}, nil
}
