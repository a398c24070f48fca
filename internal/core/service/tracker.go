package service

import (
	"context"
	"releasebot/internal/core/port"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Tracker keeps count of follow-ups still waiting on their handler.
type Tracker struct {
	inFlight map[string]time.Time
	mutex    *sync.Mutex
	wg       sync.WaitGroup
	observer port.Observer
	tokenTTL time.Duration
	now      func() time.Time
	closed   bool
}

func NewTracker(observer port.Observer, tokenTTL time.Duration) *Tracker {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Tracker{
		inFlight: make(map[string]time.Time),
		mutex:    &sync.Mutex{},
		observer: observer,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Add starts tracking id. Once Wait has been called new ids are no longer tracked and Add reports false.
func (t *Tracker) Add(id string) bool {
	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return false
	}
	if _, ok := t.inFlight[id]; !ok {
		t.wg.Add(1)
	}
	t.inFlight[id] = t.now()
	n := len(t.inFlight)
	t.mutex.Unlock()

	t.observer.FollowUpsInFlight(n)
	return true
}

func (t *Tracker) Done(id string) {
	t.mutex.Lock()
	if _, ok := t.inFlight[id]; !ok {
		t.mutex.Unlock()
		return
	}
	delete(t.inFlight, id)
	n := len(t.inFlight)
	t.wg.Done()
	t.mutex.Unlock()

	t.observer.FollowUpsInFlight(n)
}

func (t *Tracker) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return len(t.inFlight)
}

// Wait blocks until every tracked follow-up finished or ctx is done. It closes the tracker to new follow-ups.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mutex.Lock()
	t.closed = true
	t.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReportStale periodically warns about follow-ups whose handler outlived the interaction token.
func (t *Tracker) ReportStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, id := range t.stale() {
				log.Warn().Str("interactionId", id).Dur("tokenTTL", t.tokenTTL).
					Msg("handler still running after the interaction token expired")
			}
		case <-ctx.Done():
			log.Debug().Msg("stopping stale follow-up reporter")
			return
		}
	}
}

func (t *Tracker) stale() []string {
	now := t.now()

	t.mutex.Lock()
	defer t.mutex.Unlock()

	var ids []string
	for id, started := range t.inFlight {
		if now.Sub(started) > t.tokenTTL {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids
}
