package cascader

// ValueExtend summarises a resolved path. Items holds one slot per consumed
// path value, nil where the value was not found among its siblings. IsLeaf is
// true only when the deepest consumed value resolved to a leaf option.
type ValueExtend[V comparable] struct {
	Items  []*Option[V] `json:"items"`
	IsLeaf bool         `json:"is_leaf"`
}

// Resolve derives the level sequence for path over tree.
//
// Each path value is looked up among the options available at its depth
// (first match wins). Resolution stops without a trailing level when a value
// is not found or resolves to a leaf; the remainder of the path is ignored.
// Otherwise a trailing level with no selection is appended so the caller can
// choose the next value. The result always holds at least one level.
func Resolve[V comparable](tree []Option[V], path []V) []Level[V] {
	return resolve(tree, path, false).levels
}

// ResolveWithTrace behaves like Resolve and also reports how each path value
// was consumed and why resolution stopped.
func ResolveWithTrace[V comparable](tree []Option[V], path []V) ([]Level[V], Trace[V]) {
	res := resolve(tree, path, true)
	return res.levels, res.trace(path)
}

// Summarize re-walks the resolution of path over tree and builds the change
// payload delivered alongside a committed path.
func Summarize[V comparable](tree []Option[V], path []V) ValueExtend[V] {
	return resolve(tree, path, false).extend()
}

// SummarizeLevels builds a ValueExtend from an already resolved level
// sequence. consumed is the length of the path that produced levels.
func SummarizeLevels[V comparable](levels []Level[V], consumed int) ValueExtend[V] {
	n := consumed
	if n > len(levels) {
		n = len(levels)
	}
	if n < 0 {
		n = 0
	}
	items := make([]*Option[V], n)
	for i := 0; i < n; i++ {
		items[i] = levels[i].Selected
	}
	extend := ValueExtend[V]{Items: items}
	if n > 0 && items[n-1] != nil {
		extend.IsLeaf = items[n-1].IsLeaf()
	}
	return extend
}

type resolution[V comparable] struct {
	levels   []Level[V]
	consumed int
	stop     StopReason
	steps    []TraceStep[V]
}

func resolve[V comparable](tree []Option[V], path []V, traced bool) resolution[V] {
	res := resolution[V]{
		levels: make([]Level[V], 0, len(path)+1),
		stop:   StopExhausted,
	}
	current := tree
	status := LevelLoaded

	for depth, v := range path {
		target := find(current, v)
		res.levels = append(res.levels, Level[V]{
			Selected: target,
			Options:  current,
			Status:   status,
		})
		res.consumed++
		if traced {
			res.steps = append(res.steps, newTraceStep(depth, v, target, len(current)))
		}

		if target == nil {
			res.stop = StopNotFound
			return res
		}
		if target.IsLeaf() {
			res.stop = StopLeaf
			return res
		}
		current = target.Children
		status = LevelLoaded
		if target.Pending {
			status = LevelPending
		}
	}

	res.levels = append(res.levels, Level[V]{
		Options: current,
		Status:  status,
	})
	return res
}

func (r resolution[V]) extend() ValueExtend[V] {
	items := make([]*Option[V], r.consumed)
	for i := 0; i < r.consumed; i++ {
		items[i] = r.levels[i].Selected
	}
	return ValueExtend[V]{
		Items:  items,
		IsLeaf: r.stop == StopLeaf,
	}
}

func (r resolution[V]) trace(path []V) Trace[V] {
	steps := r.steps
	if steps == nil {
		steps = []TraceStep[V]{}
	}
	return Trace[V]{
		Path:    append([]V{}, path...),
		Steps:   steps,
		Stop:    r.stop,
		Ignored: len(path) - r.consumed,
	}
}
