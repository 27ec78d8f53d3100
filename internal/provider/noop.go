package provider

import (
	"context"
	"errors"
)

// NoopProvider errors unconditionally. It exists so `--provider noop` (or no
// provider configured at all) gives a clear, immediate failure on the first
// prompt rather than a confusing nil-pointer panic deeper in the evaluator.
type NoopProvider struct{}

func (NoopProvider) Complete(ctx context.Context, req Request) (Response, error) {
	return Response{}, errors.New("no prompt provider configured: pass --provider, or use 'sequence'/'heuristic' for offline runs")
}
