package cascader

// LevelStatus tags whether a level's options are available.
type LevelStatus int

const (
	// LevelLoaded means Options holds the selectable siblings.
	LevelLoaded LevelStatus = iota
	// LevelPending means the parent option's children have not been delivered
	// by the tree provider yet. Options is empty.
	LevelPending
)

func (s LevelStatus) String() string {
	switch s {
	case LevelLoaded:
		return "loaded"
	case LevelPending:
		return "pending"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s LevelStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Level is the derived view of one depth: what is selected and what can be
// selected. Selected points into the resolved tree and must be treated as
// read only.
type Level[V comparable] struct {
	Selected *Option[V]  `json:"selected,omitempty"`
	Options  []Option[V] `json:"options"`
	Status   LevelStatus `json:"status"`
}

// Pending reports whether the level's options are a not-yet-loaded
// placeholder. Presentation layers gate their rendering on it.
func (l Level[V]) Pending() bool {
	return l.Status == LevelPending
}

// HasSelection reports whether a value is selected at this depth.
func (l Level[V]) HasSelection() bool {
	return l.Selected != nil
}

// Title returns the selected option's label, or placeholder when nothing is
// selected.
func (l Level[V]) Title(placeholder string) string {
	if l.Selected == nil {
		return placeholder
	}
	return l.Selected.Label
}

// IsActive reports whether option is the one selected at this depth.
func (l Level[V]) IsActive(option Option[V]) bool {
	return l.Selected != nil && l.Selected.Value == option.Value
}
