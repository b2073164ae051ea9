package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "call_session:"
	debugKeyPrefix   = "call_debug:"
	finalKeyPrefix   = "call_final:"
	maxWatchRetries  = 5
)

// appendCappedScript pushes one event and trims the list to the newest
// ARGV[2] entries, refreshing the TTL in the same round trip.
//
// KEYS[1] = list key
// ARGV[1] = encoded event
// ARGV[2] = max length
// ARGV[3] = ttl_ms
var appendCappedScript = redis.NewScript(`
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[2]), -1)
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return redis.call('LLEN', KEYS[1])
`)

// RedisStore keeps each session as one JSON value with a TTL. Updates use
// WATCH/MULTI so concurrent writers to the same key retry instead of
// overwriting each other.
type RedisStore struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	debug DebugOptions
	now   func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration, debug DebugOptions) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl, debug: debug, now: time.Now}
}

func sessionKey(callID string) string { return sessionKeyPrefix + callID }
func debugKey(callID string) string   { return debugKeyPrefix + callID }
func finalKey(callID, key string) string {
	return finalKeyPrefix + callID + ":" + key
}

func (r *RedisStore) Get(ctx context.Context, callID string) (Session, bool, error) {
	b, err := r.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("get session: %w", err)
	}
	s, err := decodeSession(b)
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = r.now().UTC()
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.CallID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (r *RedisStore) Merge(ctx context.Context, callID string, patches ...Patch) (bool, error) {
	found := false
	err := r.update(ctx, callID, func(s *Session, exists bool) bool {
		found = exists
		if !exists {
			return false
		}
		for _, p := range patches {
			p(s)
		}
		return true
	})
	return found, err
}

func (r *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := r.rdb.Del(ctx, sessionKey(callID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) AppendHistory(ctx context.Context, callID string, lang Lang, role Role, text string) error {
	return r.update(ctx, callID, func(s *Session, exists bool) bool {
		if !exists {
			*s = Session{CallID: callID, StartedAt: r.now().UTC()}
		}
		appendTurn(s, lang, role, text)
		return true
	})
}

// update runs a read-modify-write under WATCH. fn reports whether the
// session should be written back.
func (r *RedisStore) update(ctx context.Context, callID string, fn func(s *Session, exists bool) bool) error {
	key := sessionKey(callID)
	txf := func(tx *redis.Tx) error {
		var (
			s      Session
			exists bool
		)
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if s, err = decodeSession(b); err != nil {
				return err
			}
			exists = true
		}
		if !fn(&s, exists) {
			return nil
		}
		out, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update session %s: too much contention", callID)
}

func (r *RedisStore) AppendDebugEvent(ctx context.Context, callID, typ string, payload map[string]any) error {
	if !r.debug.Enabled {
		return nil
	}
	b, err := json.Marshal(DebugEvent{Type: typ, At: r.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode debug event: %w", err)
	}
	err = appendCappedScript.Run(ctx, r.rdb, []string{debugKey(callID)}, b, r.debug.max(), r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("append debug event: %w", err)
	}
	return nil
}

func (r *RedisStore) DebugEvents(ctx context.Context, callID string) ([]DebugEvent, error) {
	raw, err := r.rdb.LRange(ctx, debugKey(callID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read debug events: %w", err)
	}
	out := make([]DebugEvent, 0, len(raw))
	for _, item := range raw {
		var e DebugEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeSession(b []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) RememberFinal(ctx context.Context, callID, key, doc string) error {
	if err := r.rdb.Set(ctx, finalKey(callID, key), doc, r.ttl).Err(); err != nil {
		return fmt.Errorf("remember final response: %w", err)
	}
	return nil
}

func (r *RedisStore) FinalResponse(ctx context.Context, callID, key string) (string, bool, error) {
	doc, err := r.rdb.Get(ctx, finalKey(callID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read final response: %w", err)
	}
	return doc, true, nil
}
