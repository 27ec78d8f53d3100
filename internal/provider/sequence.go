package provider

import (
	"context"
	"fmt"
	"sync"
)

// SequenceProvider replays a fixed, pre-loaded queue of final-text answers,
// one per Complete call, regardless of the request's content. It's the
// offline fixture for scripts whose test suite wants deterministic prompt
// results without a network call or a heuristic guess.
type SequenceProvider struct {
	mu    sync.Mutex
	queue []string
}

// NewSequenceProvider creates a provider that returns responses in order,
// erroring once the queue is exhausted.
func NewSequenceProvider(responses ...string) *SequenceProvider {
	return &SequenceProvider{queue: append([]string(nil), responses...)}
}

func (p *SequenceProvider) Complete(ctx context.Context, req Request) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return Response{}, fmt.Errorf("sequence provider exhausted: no more scripted responses")
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	return Response{FinalText: &next}, nil
}
