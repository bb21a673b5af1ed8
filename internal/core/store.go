package core

import (
	"sync"

	"github.com/mindchat/mindchat/internal/models"
)

// MessageStore is the ordered log of turns for one chat session.
// It does not validate conversation shape; ChatSession's guard does that.
type MessageStore struct {
	mu    sync.RWMutex
	turns []models.Turn
}

func NewMessageStore(initial ...models.Turn) *MessageStore {
	s := &MessageStore{}
	s.Reset(initial)
	return s
}

func (s *MessageStore) Append(turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Reset replaces the whole sequence.
func (s *MessageStore) Reset(initial []models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = make([]models.Turn, len(initial))
	copy(s.turns, initial)
}

// RollbackLast removes the most recently appended turn.
func (s *MessageStore) RollbackLast() (models.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.turns) == 0 {
		return models.Turn{}, false
	}
	last := s.turns[len(s.turns)-1]
	s.turns = s.turns[:len(s.turns)-1]
	return last, true
}

func (s *MessageStore) Turns() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Turn, len(s.turns))
	copy(result, s.turns)
	return result
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

func (s *MessageStore) Last() (models.Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return models.Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}
