package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const DefaultLinkBase = "https://calendar.example.com/meeting"

// MemoryStore keeps meetings in process memory with a monotonic counter.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	meetings []Meeting
	linkBase string
}

func NewMemoryStore(linkBase string) *MemoryStore {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	return &MemoryStore{nextID: 1, linkBase: strings.TrimRight(linkBase, "/")}
}

func (s *MemoryStore) Create(_ context.Context, m Meeting) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID
	s.nextID++
	m.CalendarLink = fmt.Sprintf("%s/%d", s.linkBase, m.ID)
	s.meetings = append(s.meetings, m)
	return m, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Meeting, len(s.meetings))
	copy(out, s.meetings)
	return out, nil
}
