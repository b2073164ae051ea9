package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Roeeht/Agent-Messiah/internal/calendar"
)

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, newStore func(DebugOptions) Store) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(DebugOptions{})
		if _, ok, err := s.Get(ctx, "CA-missing"); ok || err != nil {
			t.Fatalf("expected absent session, got ok=%v err=%v", ok, err)
		}
		ok, err := s.Merge(ctx, "CA-missing", SetStage(StageConversation))
		if ok || err != nil {
			t.Fatalf("merge on missing session should report false, got ok=%v err=%v", ok, err)
		}
		if err := s.Delete(ctx, "CA-missing"); err != nil {
			t.Fatalf("delete missing: %v", err)
		}
	})

	t.Run("put merge delete", func(t *testing.T) {
		s := newStore(DebugOptions{})
		id := fmt.Sprintf("CA-put-%d", time.Now().UnixNano())
		if err := s.Put(ctx, Session{CallID: id, LeadID: 7, Stage: StagePermission}); err != nil {
			t.Fatalf("put: %v", err)
		}
		slots := []calendar.Slot{{Display: "Tomorrow at 10:00 (17/10)"}}
		ok, err := s.Merge(ctx, id, SetStage(StageConversation), SetPendingSlots(slots), CacheResponse("turn:1:live:x", "<Response/>"))
		if !ok || err != nil {
			t.Fatalf("merge: ok=%v err=%v", ok, err)
		}
		got, ok, _ := s.Get(ctx, id)
		if !ok || got.Stage != StageConversation || len(got.PendingSlots) != 1 || got.LeadID != 7 {
			t.Fatalf("unexpected session %+v", got)
		}
		if doc, ok := got.CachedResponse("turn:1:live:x"); !ok || doc != "<Response/>" {
			t.Fatalf("expected cached response, got %q", doc)
		}
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := s.Get(ctx, id); ok {
			t.Fatalf("expected session deleted")
		}
	})

	t.Run("append creates session", func(t *testing.T) {
		s := newStore(DebugOptions{})
		id := fmt.Sprintf("CA-append-%d", time.Now().UnixNano())
		_ = s.AppendHistory(ctx, id, LangInternal, RoleUser, "hello")
		_ = s.AppendHistory(ctx, id, LangCaller, RoleUser, "שלום")
		_ = s.AppendHistory(ctx, id, LangInternal, RoleAssistant, "hi")
		got, ok, _ := s.Get(ctx, id)
		if !ok {
			t.Fatalf("expected session created by append")
		}
		if len(got.History) != 2 || got.History[1].Role != RoleAssistant || len(got.CallerHistory) != 1 {
			t.Fatalf("unexpected histories %+v / %+v", got.History, got.CallerHistory)
		}
		_ = s.Delete(ctx, id)
	})

	t.Run("debug events capped", func(t *testing.T) {
		s := newStore(DebugOptions{Enabled: true, Max: 3})
		id := fmt.Sprintf("CA-debug-%d", time.Now().UnixNano())
		for i := 0; i < 5; i++ {
			if err := s.AppendDebugEvent(ctx, id, fmt.Sprintf("e%d", i), nil); err != nil {
				t.Fatalf("append event: %v", err)
			}
		}
		events, err := s.DebugEvents(ctx, id)
		if err != nil {
			t.Fatalf("events: %v", err)
		}
		if len(events) != 3 || events[0].Type != "e2" || events[2].Type != "e4" {
			t.Fatalf("expected newest three events, got %+v", events)
		}
	})

	t.Run("final responses outlive session", func(t *testing.T) {
		s := newStore(DebugOptions{})
		id := fmt.Sprintf("CA-final-%d", time.Now().UnixNano())
		_ = s.Put(ctx, Session{CallID: id})
		if err := s.RememberFinal(ctx, id, "turn:3:recording:RE1", "<Response><Hangup/></Response>"); err != nil {
			t.Fatalf("remember: %v", err)
		}
		_ = s.Delete(ctx, id)
		doc, ok, err := s.FinalResponse(ctx, id, "turn:3:recording:RE1")
		if err != nil || !ok || doc != "<Response><Hangup/></Response>" {
			t.Fatalf("expected final response after delete, got %q ok=%v err=%v", doc, ok, err)
		}
		if _, ok, _ := s.FinalResponse(ctx, id, "turn:4:recording:RE2"); ok {
			t.Fatalf("unexpected final response for other key")
		}
	})

	t.Run("debug disabled", func(t *testing.T) {
		s := newStore(DebugOptions{})
		id := fmt.Sprintf("CA-nodebug-%d", time.Now().UnixNano())
		_ = s.AppendDebugEvent(ctx, id, "speech_received", map[string]any{"len": 3})
		events, _ := s.DebugEvents(ctx, id)
		if len(events) != 0 {
			t.Fatalf("expected no events when disabled, got %d", len(events))
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, func(d DebugOptions) Store { return NewMemoryStore(d) })
}

// testRedis returns a client for TEST_REDIS_ADDR when set, otherwise for an
// in-process miniredis server.
func testRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	var mr *miniredis.Miniredis
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		mr = miniredis.RunT(t)
		addr = mr.Addr()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRedisStore_Contract(t *testing.T) {
	rdb, _ := testRedis(t)
	storeContract(t, func(d DebugOptions) Store { return NewRedisStore(rdb, time.Minute, d) })
}

func TestRedisStore_UpdateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	rdb, _ := testRedis(t)
	s := NewRedisStore(rdb, time.Minute, DebugOptions{})
	id := fmt.Sprintf("CA-watch-%d", time.Now().UnixNano())
	if err := s.Put(ctx, Session{CallID: id, Stage: StagePermission}); err != nil {
		t.Fatalf("put: %v", err)
	}

	attempts := 0
	err := s.update(ctx, id, func(sess *Session, exists bool) bool {
		attempts++
		if attempts == 1 {
			// A concurrent writer changes the watched key before EXEC.
			other := Session{CallID: id, Stage: StagePermission, LeadID: 9}
			if err := s.Put(ctx, other); err != nil {
				t.Fatalf("concurrent put: %v", err)
			}
		}
		sess.Stage = StageConversation
		return true
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected one retry after the conflicting write, got %d attempts", attempts)
	}
	got, ok, _ := s.Get(ctx, id)
	if !ok || got.Stage != StageConversation || got.LeadID != 9 {
		t.Fatalf("retry should apply on top of the concurrent write, got %+v", got)
	}
}

func TestRedisStore_SessionExpires(t *testing.T) {
	ctx := context.Background()
	rdb, mr := testRedis(t)
	if mr == nil {
		t.Skip("expiry check needs the in-process server clock")
	}
	s := NewRedisStore(rdb, time.Minute, DebugOptions{Enabled: true, Max: 10})
	_ = s.Put(ctx, Session{CallID: "CA-ttl"})
	_ = s.AppendDebugEvent(ctx, "CA-ttl", "speech_received", nil)

	mr.FastForward(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, "CA-ttl"); ok {
		t.Fatalf("expected session to expire")
	}
	if events, _ := s.DebugEvents(ctx, "CA-ttl"); len(events) != 0 {
		t.Fatalf("expected debug log to expire, got %d events", len(events))
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DebugOptions{})
	_ = s.Put(ctx, Session{CallID: "CA1", History: []Turn{{Role: RoleUser, Content: "a"}}})

	got, _, _ := s.Get(ctx, "CA1")
	got.History[0].Content = "mutated"

	again, _, _ := s.Get(ctx, "CA1")
	if again.History[0].Content != "a" {
		t.Fatalf("store shared memory with caller")
	}
}

func TestMemoryStore_ConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DebugOptions{Enabled: true, Max: 1000})

	var wg sync.WaitGroup
	for c := 0; c < 16; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			id := fmt.Sprintf("CA-%d", c)
			_ = s.Put(ctx, Session{CallID: id})
			for i := 0; i < 50; i++ {
				_ = s.AppendHistory(ctx, id, LangInternal, RoleUser, "x")
				_, _ = s.Merge(ctx, id, CacheResponse(fmt.Sprint(i), "doc"))
				_ = s.AppendDebugEvent(ctx, id, "turn", nil)
			}
		}(c)
	}
	wg.Wait()

	for c := 0; c < 16; c++ {
		got, ok, _ := s.Get(ctx, fmt.Sprintf("CA-%d", c))
		if !ok || len(got.History) != 50 || len(got.Responses) != 50 {
			t.Fatalf("call %d: unexpected session history=%d responses=%d", c, len(got.History), len(got.Responses))
		}
	}
}

func TestMemoryStore_SweepsQuietDebugLogs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DebugOptions{Enabled: true, Max: 10})
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.AppendDebugEvent(ctx, "CA-old", "speech_received", nil)
	now = now.Add(30 * time.Minute)
	_ = s.AppendDebugEvent(ctx, "CA-recent", "speech_received", nil)

	now = now.Add(45 * time.Minute)
	if events, _ := s.DebugEvents(ctx, "CA-old"); len(events) != 0 {
		t.Fatalf("expected quiet log to be hidden, got %d events", len(events))
	}
	_ = s.AppendDebugEvent(ctx, "CA-new", "call_started", nil)

	if _, ok := s.events.Load("CA-old"); ok {
		t.Fatalf("expected quiet log to be swept")
	}
	if events, _ := s.DebugEvents(ctx, "CA-recent"); len(events) != 1 {
		t.Fatalf("recent log swept too early")
	}
}

func TestRedisKeys(t *testing.T) {
	if sessionKey("CA1") != "call_session:CA1" || debugKey("CA1") != "call_debug:CA1" || finalKey("CA1", "turn:1:live:x") != "call_final:CA1:turn:1:live:x" {
		t.Fatalf("unexpected key layout")
	}
}

func TestDecodeSession_RoundTripsPendingSlots(t *testing.T) {
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	in := `{"call_id":"CA1","stage":"conversation","pending_slots":[{"start":"2026-10-18T10:00:00Z","duration":1800000000000,"display":"Sunday at 10:00 (18/10)"}]}`
	s, err := decodeSession([]byte(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Stage != StageConversation || len(s.PendingSlots) != 1 || !s.PendingSlots[0].Start.Equal(start) || s.PendingSlots[0].Duration != 30*time.Minute {
		t.Fatalf("unexpected session %+v", s)
	}
	if _, err := decodeSession([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
