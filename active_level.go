package cascader

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange indicates a focus request outside the level sequence.
var ErrIndexOutOfRange = errors.New("cascader: active index out of range")

// Rule names a transition of the active level state machine.
type Rule string

const (
	// RulePathChanged moves focus to the deepest level after a path commit or
	// a move of the effective path.
	RulePathChanged Rule = "path_changed"
	// RuleLevelsShrank clamps focus after a recomputation left it past the
	// last level. It also covers tree replacements without a path change.
	RuleLevelsShrank Rule = "levels_shrank"
	// RuleUserFocus is a direct focus change from the interaction surface.
	RuleUserFocus Rule = "user_focus"
)

// Transition records one applied rule.
type Transition struct {
	Rule Rule `json:"rule"`
	From int  `json:"from"`
	To   int  `json:"to"`
}

// ActiveLevel owns the index of the focused level. The index always satisfies
// 0 <= index <= count-1.
type ActiveLevel struct {
	index int
	count int
}

// NewActiveLevel starts focused on the deepest of levelCount levels, the same
// state a path change would produce.
func NewActiveLevel(levelCount int) *ActiveLevel {
	count := normalizeCount(levelCount)
	return &ActiveLevel{index: count - 1, count: count}
}

// Index returns the focused level.
func (a *ActiveLevel) Index() int {
	return a.index
}

// Count returns the level count the index was last synchronised against.
func (a *ActiveLevel) Count() int {
	return a.count
}

// Sync re-synchronises the index after levels were recomputed. The path rule
// runs first when pathChanged is set, then the clamp is checked on its own. Only
// transitions that moved the index are returned. Calling Sync twice with the
// same arguments leaves the state unchanged the second time.
func (a *ActiveLevel) Sync(levelCount int, pathChanged bool) []Transition {
	a.count = normalizeCount(levelCount)
	var applied []Transition

	if pathChanged {
		if t, ok := a.move(RulePathChanged, a.count-1); ok {
			applied = append(applied, t)
		}
	}
	if a.index > a.count-1 {
		if t, ok := a.move(RuleLevelsShrank, a.count-1); ok {
			applied = append(applied, t)
		}
	}
	return applied
}

// Focus sets the index directly. It bypasses both reactive rules until the
// next Sync.
func (a *ActiveLevel) Focus(index int) (Transition, error) {
	if index < 0 || index > a.count-1 {
		return Transition{}, fmt.Errorf("%w: %d (levels %d)", ErrIndexOutOfRange, index, a.count)
	}
	t := Transition{Rule: RuleUserFocus, From: a.index, To: index}
	a.index = index
	return t, nil
}

func (a *ActiveLevel) move(rule Rule, to int) (Transition, bool) {
	if a.index == to {
		return Transition{}, false
	}
	t := Transition{Rule: rule, From: a.index, To: to}
	a.index = to
	return t, true
}

func normalizeCount(count int) int {
	if count < 1 {
		return 1
	}
	return count
}
