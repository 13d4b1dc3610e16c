package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry holds crop-type default fragments keyed by crop_type name.
// It is populated once before any resolution and never mutated afterwards;
// Resolve goroutines read it concurrently without locking.
type Registry struct {
	crops map[string]Fragment
}

// NewRegistry builds a registry from an in-memory table. The table is
// copied so later caller mutation cannot reach the registry.
func NewRegistry(crops map[string]Fragment) *Registry {
	copied := make(map[string]Fragment, len(crops))
	for k, v := range crops {
		copied[k] = v
	}
	return &Registry{crops: copied}
}

// EmptyRegistry returns a registry with no crop-type defaults; every
// resolution then reduces to system default plus record override.
func EmptyRegistry() *Registry {
	return &Registry{crops: map[string]Fragment{}}
}

// LoadRegistry reads a yaml document mapping crop_type name to a default
// fragment.
func LoadRegistry(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop defaults: %w", err)
	}
	var crops map[string]Fragment
	if err := yaml.Unmarshal(b, &crops); err != nil {
		return nil, fmt.Errorf("parse crop defaults: %w", err)
	}
	return NewRegistry(crops), nil
}

// Lookup returns the default fragment for a crop type.
func (r *Registry) Lookup(cropType string) (Fragment, bool) {
	f, ok := r.crops[cropType]
	return f, ok
}

// Len returns the number of registered crop types.
func (r *Registry) Len() int {
	return len(r.crops)
}
