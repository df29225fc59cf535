// Package llmtest provides deterministic ChatModel stubs for pipeline tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Stub replays canned replies in order; once exhausted it keeps returning
// the last one. A non-nil Err is returned on every call instead.
type Stub struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Calls   [][]*schema.Message
	next    int
}

// Static builds a stub that always answers with reply.
func Static(reply string) *Stub {
	return &Stub{Replies: []string{reply}}
}

// Failing builds a stub whose every call fails with err.
func Failing(err error) *Stub {
	return &Stub{Err: err}
}

// Script builds a stub that answers with each reply in turn.
func Script(replies ...string) *Stub {
	return &Stub{Replies: replies}
}

func (s *Stub) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, input)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Replies) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	reply := s.Replies[s.next]
	if s.next < len(s.Replies)-1 {
		s.next++
	}
	return schema.AssistantMessage(reply, nil), nil
}

// CallCount reports how many times Generate was invoked.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
