package runner

import (
	"context"
	"strings"
	"sync"
)

// StubResponse scripts the result for prompts containing Match.
type StubResponse struct {
	// Match is a substring of the prompt this response applies to.
	Match  string
	Result Result
	Err    error
}

// StubRunner serves scripted responses, matching responses in order by
// prompt substring and falling back to Default. It records every
// request for assertions.
type StubRunner struct {
	Responses []StubResponse
	Default   Result

	mu    sync.Mutex
	calls []Request
}

// Run returns the first scripted response whose Match appears in the
// prompt, or Default.
func (s *StubRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	for _, resp := range s.Responses {
		if strings.Contains(req.PromptText, resp.Match) {
			if resp.Err != nil {
				return nil, resp.Err
			}
			r := resp.Result
			return &r, nil
		}
	}
	r := s.Default
	return &r, nil
}

// Calls returns a copy of the recorded requests.
func (s *StubRunner) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

var _ AgentRunner = (*StubRunner)(nil)
