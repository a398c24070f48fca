package service

import "releasebot/internal/core/port"

// Stats exposes dispatcher internals to commands reporting on the bot itself.
type Stats struct {
	tracker *Tracker
	router  port.CommandRouter
}

func NewStats(tracker *Tracker, router port.CommandRouter) *Stats {
	return &Stats{tracker: tracker, router: router}
}

func (s *Stats) InFlightFollowUps() int {
	return s.tracker.Len()
}

func (s *Stats) RouterView() port.RouterView {
	return s.router.View()
}

var _ port.StatsProvider = (*Stats)(nil)
