package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session identifies an authenticated operator for the lifetime of a token.
type Session struct {
	Token      string    `json:"-"`
	OperatorID int64     `json:"operator_id"`
	Name       string    `json:"name"`
	IssuedAt   time.Time `json:"issued_at"`
}

// SessionStore keeps bearer-token sessions in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create issues a fresh token for the operator.
func (s *SessionStore) Create(ctx context.Context, operatorID int64, name string) (Session, error) {
	sess := Session{
		Token:      uuid.NewString(),
		OperatorID: operatorID,
		Name:       name,
		IssuedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.client.Set(ctx, s.redisKey(sess.Token), payload, s.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("shared: store session: %w", err)
	}
	return sess, nil
}

// Get resolves a token and refreshes its TTL.
func (s *SessionStore) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionExpired
	}
	payload, err := s.client.GetEx(ctx, s.redisKey(token), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, fmt.Errorf("shared: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, err
	}
	sess.Token = token
	return sess, nil
}

// Delete revokes a token. Unknown tokens are not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("shared: delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) redisKey(token string) string {
	return "balcao:session:" + token
}
