// Package research defines the external research/synthesis collaborator
// boundary. The core consumes it through a single narrow interface and
// must tolerate total collaborator failure.
package research

import "context"

// Researcher answers a question from external sources. Implementations
// may fail for network or parse reasons; callers degrade gracefully and
// never propagate the failure to the user.
type Researcher interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ResearcherFunc adapts a function to the Researcher interface.
type ResearcherFunc func(ctx context.Context, question string) (string, error)

func (f ResearcherFunc) Answer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}
