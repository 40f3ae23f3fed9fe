package engine

import (
	"context"
)

// Engine is the interface every accessibility audit engine implements.
type Engine interface {
	// Name returns the engine identifier ("axe" or "htmlcs").
	Name() string

	// Audit loads targetURL, runs the engine against it and returns the
	// engine's raw result object as JSON. Failures are *models.AuditError
	// values with code AUDIT_ENGINE_FAILED.
	Audit(ctx context.Context, targetURL string) ([]byte, error)
}

// ScriptLoader resolves an engine script location to its source text.
type ScriptLoader interface {
	Load(ctx context.Context, location string) (string, error)
}
