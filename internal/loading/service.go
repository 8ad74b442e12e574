// Package loading tracks outstanding requests behind the loading indicator
package loading

import (
	"sync"

	"github.com/stockadmin/console/internal/metrics"
	"go.uber.org/zap"
)

// Service is a reference-counted loading indicator.
// The indicator is visible while at least one tracked request is pending.
type Service struct {
	mu      sync.Mutex
	pending int
	subs    map[int]chan bool
	nextSub int
	closed  bool
	logger  *zap.Logger
}

// NewService creates a loading service with a zero counter
func NewService(logger *zap.Logger) *Service {
	metrics.PendingRequests.Set(0)
	return &Service{
		subs:   make(map[int]chan bool),
		logger: logger,
	}
}

// Show registers one more pending request
func (s *Service) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending++
	metrics.PendingRequests.Set(float64(s.pending))
	if s.pending == 1 {
		s.publish(true)
	}
}

// Hide releases one pending request. The counter never drops below zero;
// an unmatched Hide is logged and otherwise ignored.
func (s *Service) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == 0 {
		metrics.LoadingUnderflows.Inc()
		s.logger.Warn("loading indicator hidden with no pending requests")
		return
	}

	s.pending--
	metrics.PendingRequests.Set(float64(s.pending))
	if s.pending == 0 {
		s.publish(false)
	}
}

// Loading reports whether the indicator is currently visible
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Pending returns the number of outstanding requests
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Subscribe returns a channel receiving visibility transitions and a function that cancels the subscription.
// The channel holds only the latest transition, so a slow reader sees the current state rather than a backlog.
// The current state is delivered immediately.
func (s *Service) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan bool, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.pending > 0

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Close closes every subscription. Show and Hide keep counting after Close.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.closed = true
}

// publish must be called with s.mu held
func (s *Service) publish(visible bool) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- visible
	}
}
