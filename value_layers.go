package cascader

import (
	"errors"
	"fmt"
	"sort"
)

// PathSource names a layer that can contribute the effective path.
type PathSource string

const (
	// SourceDefault is the path supplied at construction.
	SourceDefault PathSource = "default"
	// SourceOwned is the path committed through the selection entry points.
	SourceOwned PathSource = "owned"
	// SourceControlled is an external override supplied by the caller.
	SourceControlled PathSource = "controlled"
)

const (
	// Layer priorities. Higher numbers win.
	PathPriorityDefault    = 100
	PathPriorityOwned      = 200
	PathPriorityControlled = 300
)

// ErrUnknownPathSource indicates a layer name outside the fixed set.
var ErrUnknownPathSource = errors.New("cascader: unknown path source")

// PathLayer pairs a source with the path it currently holds.
type PathLayer[V comparable] struct {
	Source   PathSource
	Priority int
	Path     []V
	Set      bool
}

// PathLayers resolves the effective path from the controlled, owned and
// default layers. The strongest layer that is set wins wholesale; paths are
// never merged element by element.
type PathLayers[V comparable] struct {
	layers []PathLayer[V]
}

// NewPathLayers builds the layer stack with defaultPath as the weakest layer.
func NewPathLayers[V comparable](defaultPath []V) *PathLayers[V] {
	layers := []PathLayer[V]{
		{Source: SourceControlled, Priority: PathPriorityControlled},
		{Source: SourceOwned, Priority: PathPriorityOwned},
		{Source: SourceDefault, Priority: PathPriorityDefault, Path: clonePath(defaultPath), Set: true},
	}
	sort.Slice(layers, func(i, j int) bool {
		return layers[i].Priority > layers[j].Priority
	})
	return &PathLayers[V]{layers: layers}
}

// Set stores path on the named layer.
func (l *PathLayers[V]) Set(source PathSource, path []V) error {
	layer, err := l.layer(source)
	if err != nil {
		return err
	}
	layer.Path = clonePath(path)
	layer.Set = true
	return nil
}

// Clear unsets the named layer so weaker layers show through.
func (l *PathLayers[V]) Clear(source PathSource) error {
	layer, err := l.layer(source)
	if err != nil {
		return err
	}
	layer.Path = nil
	layer.Set = false
	return nil
}

// IsSet reports whether the named layer currently holds a path.
func (l *PathLayers[V]) IsSet(source PathSource) bool {
	layer, err := l.layer(source)
	if err != nil {
		return false
	}
	return layer.Set
}

// Effective returns a copy of the winning path and the layer it came from.
func (l *PathLayers[V]) Effective() ([]V, PathSource) {
	for i := range l.layers {
		if l.layers[i].Set {
			return clonePath(l.layers[i].Path), l.layers[i].Source
		}
	}
	return []V{}, SourceDefault
}

// Layers returns copies of the layers ordered strongest first.
func (l *PathLayers[V]) Layers() []PathLayer[V] {
	out := make([]PathLayer[V], len(l.layers))
	for i, layer := range l.layers {
		layer.Path = clonePath(layer.Path)
		out[i] = layer
	}
	return out
}

func (l *PathLayers[V]) layer(source PathSource) (*PathLayer[V], error) {
	for i := range l.layers {
		if l.layers[i].Source == source {
			return &l.layers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPathSource, source)
}

func clonePath[V comparable](path []V) []V {
	out := make([]V, len(path))
	copy(out, path)
	return out
}
