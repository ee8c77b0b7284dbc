package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BaSui01/warmtransfer/types"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "warmtransfer:"

// RedisStore keeps sessions as JSON strings in Redis.
// CompareAndSwap uses WATCH/MULTI on the session key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store using the given client. An empty prefix
// selects "warmtransfer:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// createScript indexes the id before writing the session, so a failed index
// write leaves no unindexed session behind.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[2])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

func (r *RedisStore) key(id string) string { return r.prefix + "transfer:" + id }
func (r *RedisStore) indexKey() string     { return r.prefix + "transfers" }

func (r *RedisStore) Create(ctx context.Context, s *types.TransferSession) error {
	cp := s.Clone()
	if cp.Version == 0 {
		cp.Version = 1
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	created, err := createScript.Run(ctx, r.client, []string{r.key(s.ID), r.indexKey()}, data, s.ID).Int()
	if err != nil {
		return fmt.Errorf("redis create: %w", err)
	}
	if created == 0 {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*types.TransferSession, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.NewNotFoundError("transfer session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeSession(data)
}

func (r *RedisStore) CompareAndSwap(ctx context.Context, id string, expected int64, next *types.TransferSession) error {
	key := r.key(id)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return types.NewNotFoundError("transfer session", id)
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		cur, err := decodeSession(data)
		if err != nil {
			return err
		}
		if cur.Version != expected {
			return ErrConflict
		}

		cp := next.Clone()
		cp.ID = id
		cp.Version = expected + 1
		out, err := json.Marshal(cp)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (r *RedisStore) List(ctx context.Context) ([]*types.TransferSession, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return []*types.TransferSession{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([]*types.TransferSession, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		s, err := decodeSession([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sortByCreated(out)
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func decodeSession(data []byte) (*types.TransferSession, error) {
	var s types.TransferSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
