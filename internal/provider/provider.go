// Package provider adapts LLM backends to the one contract the pipeline
// needs: accept a prompt string, return a text completion, or fail with an
// error the caller can count as a spent attempt. Rate limiting and transient
// retry/backoff belong to the backend, not here.
package provider

import "context"

// Completer is the single suspension point of a pipeline run. Implementations
// must return plain text: structured provider payloads are normalized at the
// client boundary so nothing downstream branches on provider type.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}
