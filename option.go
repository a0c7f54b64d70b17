package cascader

// Option is a node in the hierarchical choice tree. Value identifies the
// option among its siblings only; the same value may appear under different
// parents.
type Option[V comparable] struct {
	Value    V              `json:"value"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled,omitempty"`
	Pending  bool           `json:"pending,omitempty"`
	Children []Option[V]    `json:"children,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsLeaf reports whether the option terminates a path. Nil and empty
// children are equivalent. A pending option is never a leaf because its
// children have not been delivered yet.
func (o Option[V]) IsLeaf() bool {
	return !o.Pending && len(o.Children) == 0
}

// HasChildren reports whether resolution descends below the option.
func (o Option[V]) HasChildren() bool {
	return !o.IsLeaf()
}

// find returns the first option in options whose value equals v. Duplicate
// sibling values resolve to the earliest entry.
func find[V comparable](options []Option[V], v V) *Option[V] {
	for i := range options {
		if options[i].Value == v {
			return &options[i]
		}
	}
	return nil
}

func cloneOption[V comparable](option Option[V]) Option[V] {
	out := option
	out.Metadata = CloneMetadata(option.Metadata)
	if option.Children != nil {
		out.Children = cloneOptions(option.Children)
	}
	return out
}

func cloneOptions[V comparable](options []Option[V]) []Option[V] {
	if options == nil {
		return nil
	}
	out := make([]Option[V], len(options))
	for i := range options {
		out[i] = cloneOption(options[i])
	}
	return out
}

// CloneMetadata copies metadata one level deep. Nil and empty maps both
// clone to nil.
func CloneMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
