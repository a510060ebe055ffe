package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-box/internal/weather"
)

const defaultKeyPrefix = "weather-box:"

// RedisStore keeps the latest display state as a JSON string and the events in
// a sorted set scored by emission time in milliseconds.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxHistory int
	maxAge     time.Duration
}

// NewRedisStore wraps an existing client. Limits behave like MemoryStore's.
func NewRedisStore(client *redis.Client, maxHistory int, maxAge time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		prefix:     defaultKeyPrefix,
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

func (s *RedisStore) displayKey() string { return s.prefix + "display" }
func (s *RedisStore) eventsKey() string  { return s.prefix + "events" }

func (s *RedisStore) SaveDisplay(ctx context.Context, d weather.DisplayState) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.displayKey(), b, 0).Err()
}

func (s *RedisStore) LatestDisplay(ctx context.Context) (weather.DisplayState, error) {
	val, err := s.client.Get(ctx, s.displayKey()).Result()
	if errors.Is(err, redis.Nil) {
		return weather.DisplayState{}, ErrNotFound
	}
	if err != nil {
		return weather.DisplayState{}, err
	}

	var d weather.DisplayState
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return weather.DisplayState{}, fmt.Errorf("decode display state: %w", err)
	}
	return d, nil
}

func (s *RedisStore) SaveEvent(ctx context.Context, e weather.ContentChanged) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := s.eventsKey()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(e.EmittedAt.UnixMilli()), Member: b})
		if s.maxHistory > 0 {
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxHistory-1))
		}
		if s.maxAge > 0 {
			cutoff := time.Now().Add(-s.maxAge).UnixMilli()
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		}
		return nil
	})
	return err
}

func (s *RedisStore) Events(ctx context.Context, from, to time.Time) ([]weather.ContentChanged, error) {
	members, err := s.client.ZRangeByScore(ctx, s.eventsKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(from.UnixMilli(), 10),
		Max: strconv.FormatInt(to.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNotFound
	}

	result := make([]weather.ContentChanged, 0, len(members))
	for _, m := range members {
		var e weather.ContentChanged
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		result = append(result, e)
	}
	return result, nil
}
