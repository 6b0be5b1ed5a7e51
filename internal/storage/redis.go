package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/molkiya/spectra/internal/config"
	"github.com/molkiya/spectra/internal/models"
)

// RedisStore implements Backend using Redis.
// Session state and previous output are JSON strings with a TTL; the timeline
// is a sorted set scored by entry timestamp.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // Time-to-live for all session keys (0 = no expiration)
}

// Connect opens a client and verifies it answers PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.DialTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout+time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a new Redis store instance.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SaveSession writes the session JSON with the store TTL.
func (s *RedisStore) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, stateKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// LoadSession retrieves a session from Redis.
func (s *RedisStore) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, stateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession deletes all keys of a session.
func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	err := s.client.Del(ctx, stateKey(id), timelineKey(id), previousOutputKey(id)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// AppendTimeline adds an entry to the sorted set and refreshes its TTL.
func (s *RedisStore) AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline entry: %w", err)
	}

	key := timelineKey(id)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(entry.T), Member: string(data)})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}
	return nil
}

// ReadTimeline returns the full timeline ordered by score.
func (s *RedisStore) ReadTimeline(ctx context.Context, id string) ([]models.TimelineEntry, error) {
	members, err := s.client.ZRangeByScore(ctx, timelineKey(id), &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}

	entries := make([]models.TimelineEntry, 0, len(members))
	for _, member := range members {
		var entry models.TimelineEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AmendLatestAdaptation replaces the highest-scored member with a copy
// carrying the new label, under the same score.
func (s *RedisStore) AmendLatestAdaptation(ctx context.Context, id string, label models.AdaptationLabel) error {
	key := timelineKey(id)

	latest, err := s.client.ZRangeWithScores(ctx, key, -1, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read latest timeline entry: %w", err)
	}
	if len(latest) == 0 {
		return nil
	}

	oldMember, ok := latest[0].Member.(string)
	if !ok {
		return fmt.Errorf("unexpected timeline member type %T", latest[0].Member)
	}
	var entry models.TimelineEntry
	if err := json.Unmarshal([]byte(oldMember), &entry); err != nil {
		return fmt.Errorf("failed to unmarshal timeline entry: %w", err)
	}
	entry.Adaptation = label
	newMember, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, key, oldMember)
		pipe.ZAdd(ctx, key, redis.Z{Score: latest[0].Score, Member: string(newMember)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to amend timeline entry: %w", err)
	}
	return nil
}

// SavePreviousOutput writes the last broadcast output with the store TTL.
func (s *RedisStore) SavePreviousOutput(ctx context.Context, id string, prev models.PreviousOutput) error {
	data, err := json.Marshal(prev)
	if err != nil {
		return fmt.Errorf("failed to marshal previous output: %w", err)
	}

	if err := s.client.Set(ctx, previousOutputKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store previous output: %w", err)
	}
	return nil
}

// LoadPreviousOutput retrieves the last broadcast output.
func (s *RedisStore) LoadPreviousOutput(ctx context.Context, id string) (*models.PreviousOutput, error) {
	data, err := s.client.Get(ctx, previousOutputKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPreviousOutputNotFound
		}
		return nil, fmt.Errorf("failed to get previous output: %w", err)
	}

	var prev models.PreviousOutput
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal previous output: %w", err)
	}
	return &prev, nil
}
