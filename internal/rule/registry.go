package rule

import (
	"fmt"
	"reflect"
	"sort"
)

var registry []Rule

// Register adds a rule to the global registry.
func Register(r Rule) {
	registry = append(registry, r)
}

// All returns a copy of all registered rules ordered by ID.
func All() []Rule {
	result := make([]Rule, len(registry))
	copy(result, registry)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ID() < result[j].ID()
	})
	return result
}

// ByID returns the registered rule with the given ID, or nil.
func ByID(id string) Rule {
	for _, r := range registry {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// ByName returns the registered rule with the given name, or nil.
func ByName(name string) Rule {
	for _, r := range registry {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// Lookup resolves either a rule ID or a rule name.
func Lookup(key string) Rule {
	if r := ByID(key); r != nil {
		return r
	}
	return ByName(key)
}

// Reset clears the registry. Used for testing.
func Reset() {
	registry = nil
}

// Configure returns a fresh copy of r with settings applied on top of its
// defaults. The registered instance is never mutated. Rules without
// settings are returned as is; passing settings to them is an error.
func Configure(r Rule, settings map[string]any) (Rule, error) {
	c, ok := r.(Configurable)
	if !ok {
		if len(settings) > 0 {
			return nil, fmt.Errorf("rule %s does not accept settings", r.Name())
		}
		return r, nil
	}

	rv := reflect.ValueOf(r)
	if rv.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("rule %s: configurable rules must be pointers", r.Name())
	}
	fresh := reflect.New(rv.Elem().Type()).Interface()
	clone, ok := fresh.(Configurable)
	if !ok {
		return nil, fmt.Errorf("rule %s: cannot copy", r.Name())
	}
	if err := clone.ApplySettings(c.DefaultSettings()); err != nil {
		return nil, fmt.Errorf("rule %s defaults: %w", r.Name(), err)
	}
	if len(settings) > 0 {
		if err := clone.ApplySettings(settings); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name(), err)
		}
	}
	return fresh.(Rule), nil
}
