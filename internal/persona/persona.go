// Package persona holds the writing-voice guidance injected into formatting
// prompts. Personas are plain instruction text keyed by name; configuration
// can add new ones or override the built-ins.
package persona

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultName is used when the caller does not pick a persona.
const DefaultName = "neuraforge"

var builtins = map[string]string{
	"neuraforge": `Write as a pragmatic ML engineer sharing hard-won lessons with peers.
Favor concrete numbers, short declarative sentences, and honest caveats over hype.
Technical depth is the point: keep every equation, benchmark, and code sample intact.`,

	"plainspoken": `Write for a smart generalist audience. Expand acronyms on first use,
prefer analogies over jargon, and keep paragraphs short. Never remove technical
material, but always introduce it in plain language first.`,

	"academic": `Write in a measured, citation-friendly register. Claims are qualified,
terminology is precise, and every assertion that could be sourced points at its
reference. Avoid colloquialisms and rhetorical questions.`,
}

// Registry resolves persona names to guidance text.
type Registry struct {
	personas map[string]string
}

// NewRegistry builds a registry from the built-in personas plus overrides,
// typically sourced from configuration. Override names are lowercased;
// an override with an empty body removes the persona.
func NewRegistry(overrides map[string]string) *Registry {
	personas := make(map[string]string, len(builtins)+len(overrides))
	for name, text := range builtins {
		personas[name] = text
	}
	for name, text := range overrides {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if strings.TrimSpace(text) == "" {
			delete(personas, name)
			continue
		}
		personas[name] = text
	}
	return &Registry{personas: personas}
}

// Guidance returns the instruction text for name. An empty name resolves to
// the default persona; an unknown name is an error that lists what exists.
func (r *Registry) Guidance(name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	text, ok := r.personas[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown persona %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return text, nil
}

// Names lists the registered persona names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.personas))
	for name := range r.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
