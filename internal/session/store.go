package session

import (
	"sync"

	"github.com/auraihq/aurai/internal/logging"
)

// Store is the bounded, ordered log of conversation turns. All mutation is
// mutex-guarded; persistence through the sink is best effort and never
// aborts the in-memory operation.
type Store struct {
	mu         sync.Mutex
	turns      []Turn
	maxHistory int
	sink       HistorySink
	logger     *logging.Logger
}

// NewStore builds a store bounded at maxHistory turns, hydrated from the
// sink. A sink load failure starts the session empty.
func NewStore(maxHistory int, sink HistorySink, logger *logging.Logger) *Store {
	if sink == nil {
		sink = NopSink{}
	}
	s := &Store{
		maxHistory: maxHistory,
		sink:       sink,
		logger:     logger,
	}
	turns, err := sink.Load()
	if err != nil {
		logger.Warnf("load history: %v, starting empty", err)
		return s
	}
	if n := len(turns); n > maxHistory {
		turns = turns[n-maxHistory:]
	}
	s.turns = turns
	if len(s.turns) > 0 {
		logger.Infof("hydrated %d history turns", len(s.turns))
	}
	return s
}

// Append adds a turn, evicting the oldest once the bound is exceeded.
func (s *Store) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
	if len(s.turns) > s.maxHistory {
		s.turns = s.turns[len(s.turns)-s.maxHistory:]
	}
	s.persistLocked()
}

// Recent returns at most the last n turns in original order.
func (s *Store) Recent(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.turns) {
		n = len(s.turns)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// All returns a copy of the full log in order.
func (s *Store) All() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Last returns the most recent turn, if any.
func (s *Store) Last() (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// Len reports the current number of turns.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Clear discards the whole log.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.turns)
	s.turns = nil
	s.persistLocked()
	return n
}

func (s *Store) persistLocked() {
	if err := s.sink.Save(s.turns); err != nil {
		s.logger.Warnf("persist history: %v, continuing in memory", err)
	}
}
