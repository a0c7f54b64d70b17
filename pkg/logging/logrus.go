// Package logging adapts the cascader and rules logger interfaces to logrus.
package logging

import (
	"strings"

	cascader "github.com/goliatone/go-cascader"
	"github.com/goliatone/go-cascader/pkg/rules"
	log "github.com/sirupsen/logrus"
)

// Logrus returns a cascader.Logger writing view events to logger. Successful
// events are logged at debug level, failures at warn level.
func Logrus(logger log.FieldLogger) cascader.Logger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return cascader.LoggerFunc(func(event cascader.LogEvent) {
		entry := logger.WithFields(log.Fields{
			"op":           event.Op,
			"view":         event.ViewID,
			"path":         strings.Join(event.Path, "/"),
			"levels":       event.Levels,
			"active_index": event.ActiveIndex,
			"duration":     event.Duration,
		})
		if event.Depth >= 0 {
			entry = entry.WithField("depth", event.Depth)
		}
		if len(event.Transitions) > 0 {
			entry = entry.WithField("transitions", transitionNames(event.Transitions))
		}
		if event.Err != nil {
			entry.WithError(event.Err).Warn("cascader view event failed")
			return
		}
		entry.Debug("cascader view event")
	})
}

// Evaluations returns a rules.EvaluatorLogger writing rule evaluations to
// logger at trace level. Failed evaluations are logged at warn level.
func Evaluations(logger log.FieldLogger) rules.EvaluatorLogger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return rules.EvaluatorLoggerFunc(func(event rules.EvaluatorLogEvent) {
		entry := logger.WithFields(log.Fields{
			"engine":   event.Engine,
			"rule":     event.Rule,
			"expr":     event.Expr,
			"path":     event.Path,
			"duration": event.Duration,
		})
		if event.Err != nil {
			entry.WithError(event.Err).Warn("rule evaluation failed")
			return
		}
		entry.WithField("result", event.Result).Trace("rule evaluated")
	})
}

func transitionNames(transitions []cascader.Transition) []string {
	out := make([]string, len(transitions))
	for i, t := range transitions {
		out[i] = string(t.Rule)
	}
	return out
}
