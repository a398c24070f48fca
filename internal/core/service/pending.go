package service

import (
	"context"
	"releasebot/internal/core/domain"
	"sync"
	"sync/atomic"
	"time"
)

// PendingResponse is the in-flight result of one handler invocation. It is resolved exactly once and can be
// observed by any number of waiters: the dispatcher racing its deadline and, if the deadline wins, the follow-up
// deliverer.
type PendingResponse struct {
	done      chan struct{}
	once      sync.Once
	handedOff atomic.Bool

	response *domain.Response
	err      error

	StartedAt time.Time
	Deadline  time.Time
}

func NewPendingResponse(startedAt time.Time, deadline time.Duration) *PendingResponse {
	return &PendingResponse{
		done:      make(chan struct{}),
		StartedAt: startedAt,
		Deadline:  startedAt.Add(deadline),
	}
}

// resolve stores the result. Later calls are ignored.
func (p *PendingResponse) resolve(response *domain.Response, err error) bool {
	resolved := false
	p.once.Do(func() {
		p.response = response
		p.err = err
		close(p.done)
		resolved = true
	})

	return resolved
}

// Done is closed once the result is available.
func (p *PendingResponse) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx is done.
func (p *PendingResponse) Wait(ctx context.Context) (*domain.Response, error) {
	select {
	case <-p.done:
		return p.response, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handOff transfers ownership to the follow-up deliverer. It succeeds only once.
func (p *PendingResponse) handOff() bool {
	return p.handedOff.CompareAndSwap(false, true)
}

// outcome blocks until the result is available.
func (p *PendingResponse) outcome() (*domain.Response, error) {
	<-p.done
	return p.response, p.err
}
