// Package trace defines the observability collaborator boundary. The engine
// emits named operation spans (series run, game, phase, actor decision,
// reflection) for external capture and must keep working when no collector
// is attached, so every helper tolerates a nil or no-op tracer.
package trace

import "context"

// Tracer starts named spans. Implementations bridge to whatever tracing
// backend the host process uses; the engine never depends on capture
// succeeding.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, Span)
}

// Span is a single named operation. End is called exactly once, with the
// operation's terminal error (nil on success).
type Span interface {
	End(err error)
}

// Noop is the default tracer; it records nothing.
type Noop struct{}

// StartSpan implements Tracer.
func (Noop) StartSpan(ctx context.Context, _ string, _ map[string]any) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Start begins a span on t, substituting a no-op when t is nil so call
// sites never need a nil check.
func Start(ctx context.Context, t Tracer, name string, attrs map[string]any) (context.Context, Span) {
	if t == nil {
		t = Noop{}
	}
	return t.StartSpan(ctx, name, attrs)
}
