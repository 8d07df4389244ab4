package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/vote-score/internal/core/domain"
)

const (
	DefaultRedisKey = "score"

	fieldValue     = "value"
	fieldUpvotes   = "upvotes"
	fieldDownvotes = "downvotes"
)

var addVoteScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local delta = tonumber(ARGV[2])

redis.call('HINCRBY', key, field, 1)
return redis.call('HINCRBY', key, 'value', delta)
`)

// RedisCounter keeps the score in a redis hash so it survives restarts and
// can be shared by several service instances.
type RedisCounter struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCounter(client redis.UniversalClient, key string) *RedisCounter {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCounter{client: client, key: key}
}

func (r *RedisCounter) Add(ctx context.Context, direction domain.Direction) (int64, error) {
	var field string
	switch direction {
	case domain.DirectionUp:
		field = fieldUpvotes
	case domain.DirectionDown:
		field = fieldDownvotes
	default:
		return 0, domain.ErrInvalidDirection
	}

	return addVoteScript.Run(ctx, r.client, []string{r.key}, field, direction.Delta()).Int64()
}

func (r *RedisCounter) Get(ctx context.Context) (int64, error) {
	v, err := r.client.HGet(ctx, r.key, fieldValue).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisCounter) Tally(ctx context.Context) (domain.Tally, error) {
	var raw struct {
		Value     int64 `redis:"value"`
		Upvotes   int64 `redis:"upvotes"`
		Downvotes int64 `redis:"downvotes"`
	}
	if err := r.client.HGetAll(ctx, r.key).Scan(&raw); err != nil {
		return domain.Tally{}, err
	}

	return domain.Tally{
		Upvotes:   raw.Upvotes,
		Downvotes: raw.Downvotes,
		Score:     raw.Value,
	}, nil
}

// Reset drops the stored score.
func (r *RedisCounter) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
