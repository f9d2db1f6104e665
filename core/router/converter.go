package router

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Converter validates and transforms one raw path segment into a typed value.
// Pattern returns the regular-expression fragment the segment must match;
// Convert runs only after a full structural match and may suspend on the
// context. A conversion failure is a malformed-parameter condition, not a
// framework fault.
type Converter interface {
	Pattern() string
	Convert(ctx context.Context, value string) (any, error)
}

// StringConverter passes the segment through unchanged. It is the default
// for unannotated parameters and the fallback for unknown type tags.
type StringConverter struct{}

func (StringConverter) Pattern() string { return `[^/]+` }

func (StringConverter) Convert(_ context.Context, value string) (any, error) {
	return value, nil
}

// IntConverter matches decimal digits and yields an int. Overflow is a
// conversion failure.
type IntConverter struct{}

func (IntConverter) Pattern() string { return `[0-9]+` }

func (IntConverter) Convert(_ context.Context, value string) (any, error) {
	return strconv.Atoi(value)
}

// UUIDConverter matches the canonical RFC 4122 text form and yields a
// uuid.UUID.
type UUIDConverter struct{}

func (UUIDConverter) Pattern() string {
	return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`
}

func (UUIDConverter) Convert(_ context.Context, value string) (any, error) {
	return uuid.Parse(value)
}

// BaseConverters returns the built-in tag set: str, int, uuid.
func BaseConverters() map[string]Converter {
	return map[string]Converter{
		"str":  StringConverter{},
		"int":  IntConverter{},
		"uuid": UUIDConverter{},
	}
}

// Registry maps type tags to converters. A router owns one registry whose
// entries act as defaults for every route added to it.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry creates a registry seeded with the base converters.
func NewRegistry() *Registry {
	return &Registry{converters: BaseConverters()}
}

// Register binds tag to conv, replacing any previous binding.
func (r *Registry) Register(tag string, conv Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[tag] = conv
}

// Get returns the converter bound to tag.
func (r *Registry) Get(tag string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.converters[tag]
	return conv, ok
}

// Snapshot returns an independent copy of the current bindings.
func (r *Registry) Snapshot() map[string]Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Converter, len(r.converters))
	for tag, conv := range r.converters {
		out[tag] = conv
	}
	return out
}
