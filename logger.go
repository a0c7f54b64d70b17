package cascader

import "time"

// Operations reported through Logger.
const (
	OpSelect     = "select"
	OpDeselect   = "deselect"
	OpReset      = "reset"
	OpControlled = "controlled"
	OpTree       = "tree"
	OpFocus      = "focus"
)

// LogEvent describes one state change of a View.
type LogEvent struct {
	Op          string
	ViewID      string
	Depth       int
	Path        []string
	Levels      int
	ActiveIndex int
	Transitions []Transition
	Duration    time.Duration
	Err         error
}

// Logger records view events.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}
