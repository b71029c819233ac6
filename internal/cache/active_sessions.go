package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the hot-path view of an open charging session.
type ActiveSession struct {
	SessionID     int64     `json:"session_id"`
	TransactionID int64     `json:"transaction_id"`
	ChargePointID string    `json:"charge_point_id"`
	ConnectorID   int64     `json:"connector_id"`
	UserID        int64     `json:"user_id"`
	StartTime     time.Time `json:"start_time"`
}

// ActiveSessionStore caches open sessions in redis so the HTTP surface can
// list them without touching the primary store.
type ActiveSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveSessionStore returns redis-backed store.
func NewActiveSessionStore(client *redis.Client, ttl time.Duration) *ActiveSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ActiveSessionStore{client: client, ttl: ttl}
}

func (s *ActiveSessionStore) key(transactionID int64) string {
	return fmt.Sprintf("sessions:active:%d", transactionID)
}

// Save caches an open session.
func (s *ActiveSessionStore) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.TransactionID), data, s.ttl).Err()
}

// Delete evicts a session at stop.
func (s *ActiveSessionStore) Delete(ctx context.Context, transactionID int64) error {
	return s.client.Del(ctx, s.key(transactionID)).Err()
}

// List returns all cached open sessions.
func (s *ActiveSessionStore) List(ctx context.Context) ([]ActiveSession, error) {
	var sessions []ActiveSession
	iter := s.client.Scan(ctx, 0, "sessions:active:*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var session ActiveSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
