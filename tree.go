package cascader

// Clone returns a deep copy of tree. Metadata maps are copied one level deep.
func Clone[V comparable](tree []Option[V]) []Option[V] {
	return cloneOptions(tree)
}

// FindPath walks tree following path and returns the matched options, one per
// path value. Walking stops at the first value that is not found or when a
// leaf is reached before the path ends; ok reports whether every value
// matched.
func FindPath[V comparable](tree []Option[V], path []V) (matched []*Option[V], ok bool) {
	current := tree
	for i, v := range path {
		target := find(current, v)
		if target == nil {
			return matched, false
		}
		matched = append(matched, target)
		if len(target.Children) == 0 && i < len(path)-1 {
			return matched, false
		}
		current = target.Children
	}
	return matched, true
}

// WithChildren returns a new tree snapshot where the option addressed by path
// carries children and is no longer pending. Only the slices along path are
// copied; untouched subtrees are shared with the input. The input tree is
// never modified. ok is false when path does not address an option, in which
// case tree is returned unchanged.
func WithChildren[V comparable](tree []Option[V], path []V, children []Option[V]) ([]Option[V], bool) {
	if len(path) == 0 {
		return tree, false
	}
	next, ok := replaceChildren(tree, path, children)
	if !ok {
		return tree, false
	}
	return next, true
}

func replaceChildren[V comparable](options []Option[V], path []V, children []Option[V]) ([]Option[V], bool) {
	index := -1
	for i := range options {
		if options[i].Value == path[0] {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}

	out := make([]Option[V], len(options))
	copy(out, options)
	target := out[index]
	if len(path) == 1 {
		target.Children = children
		target.Pending = false
		out[index] = target
		return out, true
	}

	descendants, ok := replaceChildren(target.Children, path[1:], children)
	if !ok {
		return nil, false
	}
	target.Children = descendants
	out[index] = target
	return out, true
}
