package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	mu sync.Mutex
	s  Session
}

type finalDoc struct {
	doc     string
	expires time.Time
}

type eventLog struct {
	mu      sync.Mutex
	events  []DebugEvent
	updated time.Time
}

// MemoryStore is a process-local Store. Each call id has its own lock;
// there is no store-wide lock on the hot path. Final responses and debug
// logs outlive the session for retention, then are swept.
type MemoryStore struct {
	sessions  sync.Map // string -> *memoryEntry
	events    sync.Map // string -> *eventLog
	finals    sync.Map // callID + "|" + key -> finalDoc
	retention time.Duration
	debug     DebugOptions
	now       func() time.Time
}

func NewMemoryStore(debug DebugOptions) *MemoryStore {
	return &MemoryStore{debug: debug, now: time.Now, retention: time.Hour}
}

func (m *MemoryStore) Get(_ context.Context, callID string) (Session, bool, error) {
	v, ok := m.sessions.Load(callID)
	if !ok {
		return Session{}, false, nil
	}
	e := v.(*memoryEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = m.now()
	}
	m.sessions.Store(s.CallID, &memoryEntry{s: s.Clone()})
	return nil
}

func (m *MemoryStore) Merge(_ context.Context, callID string, patches ...Patch) (bool, error) {
	v, ok := m.sessions.Load(callID)
	if !ok {
		return false, nil
	}
	e := v.(*memoryEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range patches {
		p(&e.s)
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, callID string) error {
	m.sessions.Delete(callID)
	return nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, callID string, lang Lang, role Role, text string) error {
	v, _ := m.sessions.LoadOrStore(callID, &memoryEntry{s: Session{CallID: callID, StartedAt: m.now()}})
	e := v.(*memoryEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	appendTurn(&e.s, lang, role, text)
	return nil
}

func (m *MemoryStore) AppendDebugEvent(_ context.Context, callID, typ string, payload map[string]any) error {
	if !m.debug.Enabled {
		return nil
	}
	now := m.now()
	v, loaded := m.events.LoadOrStore(callID, &eventLog{})
	l := v.(*eventLog)
	l.mu.Lock()
	l.events = append(l.events, DebugEvent{Type: typ, At: now.UTC(), Payload: payload})
	if over := len(l.events) - m.debug.max(); over > 0 {
		l.events = append([]DebugEvent(nil), l.events[over:]...)
	}
	l.updated = now
	l.mu.Unlock()

	// A new call is a good moment to drop logs of calls gone quiet.
	if !loaded {
		m.sweepEvents(now)
	}
	return nil
}

func (m *MemoryStore) sweepEvents(now time.Time) {
	m.events.Range(func(k, v any) bool {
		l := v.(*eventLog)
		l.mu.Lock()
		stale := now.Sub(l.updated) > m.retention
		l.mu.Unlock()
		if stale {
			m.events.Delete(k)
		}
		return true
	})
}

func (m *MemoryStore) DebugEvents(_ context.Context, callID string) ([]DebugEvent, error) {
	v, ok := m.events.Load(callID)
	if !ok {
		return nil, nil
	}
	l := v.(*eventLog)
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.now().Sub(l.updated) > m.retention {
		return nil, nil
	}
	return append([]DebugEvent(nil), l.events...), nil
}

func (m *MemoryStore) RememberFinal(_ context.Context, callID, key, doc string) error {
	now := m.now()
	m.finals.Range(func(k, v any) bool {
		if now.After(v.(finalDoc).expires) {
			m.finals.Delete(k)
		}
		return true
	})
	m.finals.Store(callID+"|"+key, finalDoc{doc: doc, expires: now.Add(m.retention)})
	return nil
}

func (m *MemoryStore) FinalResponse(_ context.Context, callID, key string) (string, bool, error) {
	v, ok := m.finals.Load(callID + "|" + key)
	if !ok {
		return "", false, nil
	}
	f := v.(finalDoc)
	if m.now().After(f.expires) {
		return "", false, nil
	}
	return f.doc, true, nil
}
