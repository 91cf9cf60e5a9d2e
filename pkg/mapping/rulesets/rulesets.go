// Package rulesets is the registry of built-in mapping rule sets. Renderer
// packages register themselves from init, driver-style; importing a
// renderer package for side effects makes its rule set available:
//
//	import _ "github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets/arnold"
package rulesets

import (
	"sort"
	"strings"
	"sync"

	"github.com/lookdevkit/shaderbridge/pkg/mapping"
)

var (
	mu       sync.RWMutex
	registry = map[string]*mapping.RuleSet{}
)

// Register makes a rule set available under its name. Panics on duplicate
// registration; rule set names are package-level constants, so a duplicate
// is a programming error.
func Register(rs *mapping.RuleSet) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[rs.Name]; exists {
		panic("rulesets: duplicate registration of " + rs.Name)
	}
	registry[rs.Name] = rs
}

// Find returns the registered rule set with the given name.
func Find(name string) (*mapping.RuleSet, bool) {
	mu.RLock()
	defer mu.RUnlock()
	rs, ok := registry[name]
	return rs, ok
}

// Names returns the registered rule set names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect guesses the rule set from the node type tags present in a scene.
// Whichever renderer's shader prefixes appear more often wins; ties and
// networks built only from renderer-agnostic utility nodes go to arnold.
func Detect(types []string) string {
	arnold, prman := 0, 0
	for _, t := range types {
		switch {
		case strings.HasPrefix(t, "Pxr"):
			prman++
		case strings.HasPrefix(t, "ai"), strings.HasPrefix(t, "al"):
			arnold++
		}
	}
	if prman > arnold {
		return "prman"
	}
	return "arnold"
}
