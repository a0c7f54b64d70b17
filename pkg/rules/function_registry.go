package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable exposed to rule expressions by name.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions. Lookups are case insensitive;
// Names reports the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register stores fn under name. A name may only be registered once,
// regardless of case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("rules: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("rules: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("rules: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rules: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rules: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a registry preloaded with helpers for option rules:
//
//	inPath(path, value)          reports whether value appears in path
//	meta(metadata, key, default) reads a metadata key with a fallback
func Builtins() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("inPath", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("rules: inPath expects 2 arguments, got %d", len(args))
		}
		path, ok := args[0].([]any)
		if !ok {
			return false, nil
		}
		for _, v := range path {
			if fmt.Sprint(v) == fmt.Sprint(args[1]) {
				return true, nil
			}
		}
		return false, nil
	})
	_ = registry.Register("meta", func(args ...any) (any, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("rules: meta expects 3 arguments, got %d", len(args))
		}
		metadata, ok := args[0].(map[string]any)
		if !ok {
			return args[2], nil
		}
		key := fmt.Sprint(args[1])
		if value, found := metadata[key]; found && value != nil {
			return value, nil
		}
		return args[2], nil
	})
	return registry
}
