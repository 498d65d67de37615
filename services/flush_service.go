package services

import (
	"log"
	"sync"
	"time"
)

type FlushServiceInterface interface {
	QueueEdit(promptID, content string)
	Flush(promptID string) error
	Stop()
}

type flushSlot struct {
	timer   *time.Timer
	content string
}

// FlushService coalesces rapid content edits into one durable write per
// prompt: a single pending flush slot per id, reset on every new edit and
// fired after the quiet period. Intermediate keystrokes never individually
// reach the vault.
type FlushService struct {
	mu       sync.Mutex
	versions VersionServiceInterface
	delay    time.Duration
	pending  map[string]*flushSlot
	stopped  bool
}

func NewFlushService(versions VersionServiceInterface, delay time.Duration) *FlushService {
	return &FlushService{
		versions: versions,
		delay:    delay,
		pending:  make(map[string]*flushSlot),
	}
}

// QueueEdit records the latest content for the prompt and (re)arms its
// flush timer.
func (s *FlushService) QueueEdit(promptID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if slot, ok := s.pending[promptID]; ok {
		slot.content = content
		slot.timer.Reset(s.delay)
		return
	}

	slot := &flushSlot{content: content}
	slot.timer = time.AfterFunc(s.delay, func() {
		if err := s.flushNow(promptID); err != nil {
			log.Printf("Warning: flush for prompt %s failed: %v", promptID, err)
		}
	})
	s.pending[promptID] = slot
}

// Flush writes any pending edit for the prompt immediately.
func (s *FlushService) Flush(promptID string) error {
	return s.flushNow(promptID)
}

// Stop cancels all timers and writes every pending edit synchronously.
// Called on shutdown so no buffered keystrokes are lost.
func (s *FlushService) Stop() {
	s.mu.Lock()
	s.stopped = true
	ids := make([]string, 0, len(s.pending))
	for id, slot := range s.pending {
		slot.timer.Stop()
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.flushNow(id); err != nil {
			log.Printf("Warning: final flush for prompt %s failed: %v", id, err)
		}
	}
}

func (s *FlushService) flushNow(promptID string) error {
	s.mu.Lock()
	slot, ok := s.pending[promptID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	slot.timer.Stop()
	content := slot.content
	delete(s.pending, promptID)
	s.mu.Unlock()

	_, err := s.versions.EditCurrentContent(promptID, content)
	return err
}
