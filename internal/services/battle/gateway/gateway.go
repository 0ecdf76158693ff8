// Package gateway delivers pending battle decisions to participants.
//
// The engine treats every gateway as synchronous. A gateway that cannot
// answer yet returns ErrDeferred; the engine then saves the battle and
// returns control to its caller, which resumes it once a response arrives.
package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// ErrDeferred indicates the participant has not answered yet.
var ErrDeferred = errors.New("decision deferred")

// Gateway asks a participant for a decision.
type Gateway interface {
	RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error)
}

// Func adapts a function to Gateway.
type Func func(ctx context.Context, req decision.Request) (decision.Response, error)

// RequestDecision calls f.
func (f Func) RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error) {
	return f(ctx, req)
}

// Deferred never answers. It stands in for participants who reply out of
// band, such as a human player between process runs.
type Deferred struct{}

// RequestDecision always defers.
func (Deferred) RequestDecision(ctx context.Context, _ decision.Request) (decision.Response, error) {
	if err := ctx.Err(); err != nil {
		return decision.Response{}, err
	}
	return decision.Response{}, ErrDeferred
}

// Router sends each request to the gateway of the deciding side. A side
// without a gateway defers.
type Router struct {
	Offense Gateway
	Defense Gateway
}

// RequestDecision dispatches req by side.
func (r Router) RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error) {
	target := r.Defense
	if req.Side == unit.Offense {
		target = r.Offense
	}
	if target == nil {
		return decision.Response{}, ErrDeferred
	}
	return target.RequestDecision(ctx, req)
}

// Scripted answers with queued responses in order and defers once the
// queue is empty. It records every request it sees.
type Scripted struct {
	mu        sync.Mutex
	responses []decision.Response
	requests  []decision.Request
}

// NewScripted creates a scripted gateway.
func NewScripted(responses ...decision.Response) *Scripted {
	return &Scripted{responses: responses}
}

// Push queues more responses.
func (s *Scripted) Push(responses ...decision.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
}

// RequestDecision pops the next response.
func (s *Scripted) RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error) {
	if err := ctx.Err(); err != nil {
		return decision.Response{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return decision.Response{}, ErrDeferred
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

// Requests returns the requests seen so far.
func (s *Scripted) Requests() []decision.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]decision.Request, len(s.requests))
	copy(out, s.requests)
	return out
}
