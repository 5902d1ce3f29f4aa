package onboard

import (
	"log/slog"
	"sync"

	"github.com/aretw0/onboard/pkg/domain"
)

// streamBuffer is the per-subscriber backlog before diffs are dropped.
const streamBuffer = 16

// streams fans state diffs out to per-session subscribers.
type streams struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *domain.StateDiff]struct{}
	logger      *slog.Logger
}

func newStreams(logger *slog.Logger) *streams {
	return &streams{
		subscribers: make(map[string]map[chan *domain.StateDiff]struct{}),
		logger:      logger,
	}
}

func (s *streams) subscribe(sessionID string) (<-chan *domain.StateDiff, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *domain.StateDiff, streamBuffer)
	if _, ok := s.subscribers[sessionID]; !ok {
		s.subscribers[sessionID] = make(map[chan *domain.StateDiff]struct{})
	}
	s.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if subs, ok := s.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(s.subscribers, sessionID)
				}
			}
		})
	}
}

func (s *streams) broadcast(diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers[diff.SessionID] {
		select {
		case ch <- diff:
		default:
			// Drop the diff if the subscriber is not keeping up
			s.logger.Warn("subscriber buffer full, dropping diff", "session_id", diff.SessionID)
		}
	}
}
