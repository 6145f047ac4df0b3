package voices

import (
	"fmt"
	"sort"
)

// Registry maps public voice names to engine-native voice identifiers.
// The mapping is fixed at construction; lookups are read-only.
type Registry struct {
	mapping map[string]string
}

// UnknownVoiceError reports a lookup for a voice that has no mapping.
type UnknownVoiceError struct {
	Name string
}

func (e *UnknownVoiceError) Error() string {
	return fmt.Sprintf("unknown voice %q", e.Name)
}

// defaultMapping covers the OpenAI-compatible voice names.
var defaultMapping = map[string]string{
	"alloy":   "expr-voice-5-m",
	"echo":    "expr-voice-2-m",
	"fable":   "expr-voice-3-f",
	"onyx":    "expr-voice-4-m",
	"nova":    "expr-voice-5-f",
	"shimmer": "expr-voice-2-f",
}

// NewRegistry builds a registry from the default mapping with optional
// overrides from configuration. An override with an empty engine ID
// removes the voice.
func NewRegistry(overrides map[string]string) *Registry {
	mapping := make(map[string]string, len(defaultMapping))
	for name, id := range defaultMapping {
		mapping[name] = id
	}
	for name, id := range overrides {
		if id == "" {
			delete(mapping, name)
			continue
		}
		mapping[name] = id
	}
	return &Registry{mapping: mapping}
}

// Resolve returns the engine-native voice ID for a public voice name.
func (r *Registry) Resolve(name string) (string, error) {
	id, ok := r.mapping[name]
	if !ok {
		return "", &UnknownVoiceError{Name: name}
	}
	return id, nil
}

// Names returns the public voice names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.mapping))
	for name := range r.mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mapping returns a copy of the public-to-engine voice table.
func (r *Registry) Mapping() map[string]string {
	out := make(map[string]string, len(r.mapping))
	for name, id := range r.mapping {
		out[name] = id
	}
	return out
}
