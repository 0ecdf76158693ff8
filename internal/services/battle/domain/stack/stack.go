// Package stack is the durable continuation of a battle: the remaining
// steps of the current round, each with the point it reached.
//
// Entries name steps by catalog tag only. The driver re-derives behavior
// from the tag, so a stack can be saved in one process and resumed in
// another.
package stack

import (
	"errors"
	"fmt"
	"slices"

	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
)

// Marker is how far an entry has progressed.
type Marker int

const (
	// NotStarted entries have not been validated or prepared.
	NotStarted Marker = iota
	// Awaiting entries hold a request and wait for its response.
	Awaiting
	// Received entries hold a validated response; only the effect remains.
	Received
)

func (m Marker) String() string {
	switch m {
	case NotStarted:
		return "not_started"
	case Awaiting:
		return "awaiting"
	case Received:
		return "received"
	default:
		return fmt.Sprintf("marker(%d)", int(m))
	}
}

var (
	// ErrEmpty indicates an operation on an empty stack.
	ErrEmpty = errors.New("execution stack is empty")
	// ErrNotAwaiting indicates a response for an entry that is not waiting.
	ErrNotAwaiting = errors.New("current step is not awaiting a response")
	// ErrAlreadyStarted indicates a second request for the same entry.
	ErrAlreadyStarted = errors.New("current step already requested a decision")
)

// Entry is one pending step.
type Entry struct {
	BattleID string             `json:"battle_id"`
	Tag      string             `json:"tag"`
	Round    int                `json:"round"`
	Marker   Marker             `json:"marker"`
	Request  *decision.Request  `json:"request,omitempty"`
	Response *decision.Response `json:"response,omitempty"`
}

// Stack is a LIFO of entries. It is not safe for concurrent use.
type Stack struct {
	entries []Entry
}

// New restores a stack from entries listed bottom to top.
func New(entries ...Entry) *Stack {
	s := &Stack{}
	for _, e := range entries {
		s.entries = append(s.entries, cloneEntry(e))
	}
	return s
}

// Push adds a plan so that its first entry ends on top and runs first.
func (s *Stack) Push(plan ...Entry) {
	for i := len(plan) - 1; i >= 0; i-- {
		s.entries = append(s.entries, cloneEntry(plan[i]))
	}
}

// Current returns the top entry.
func (s *Stack) Current() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return cloneEntry(s.entries[len(s.entries)-1]), true
}

// Await records the request the top entry is waiting on.
func (s *Stack) Await(req decision.Request) error {
	top, err := s.top()
	if err != nil {
		return err
	}
	if top.Marker != NotStarted {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, top.Tag, top.Marker)
	}
	top.Marker = Awaiting
	top.Request = &req
	return nil
}

// Resume records the response for the awaiting top entry. The response
// must already be validated; Resume only guards the marker transition.
func (s *Stack) Resume(resp decision.Response) error {
	top, err := s.top()
	if err != nil {
		return err
	}
	if top.Marker != Awaiting {
		return fmt.Errorf("%w: %s is %s", ErrNotAwaiting, top.Tag, top.Marker)
	}
	top.Marker = Received
	top.Response = &resp
	return nil
}

// Pop removes and returns the top entry.
func (s *Stack) Pop() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	last := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return last, true
}

// IsEmpty reports whether no entries remain.
func (s *Stack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries, bottom to top.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func (s *Stack) top() (*Entry, error) {
	if len(s.entries) == 0 {
		return nil, ErrEmpty
	}
	return &s.entries[len(s.entries)-1], nil
}

func cloneEntry(e Entry) Entry {
	if e.Request != nil {
		req := *e.Request
		req.Candidates = slices.Clone(req.Candidates)
		req.Options = slices.Clone(req.Options)
		if req.Buckets != nil {
			req.Buckets = make([]decision.Bucket, len(e.Request.Buckets))
			for i, b := range e.Request.Buckets {
				b.Eligible = slices.Clone(b.Eligible)
				req.Buckets[i] = b
			}
		}
		e.Request = &req
	}
	if e.Response != nil {
		resp := *e.Response
		resp.Casualties = slices.Clone(resp.Casualties)
		resp.Submerge = slices.Clone(resp.Submerge)
		e.Response = &resp
	}
	return e
}
