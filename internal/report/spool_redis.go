package report

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const DefaultSpoolKey = "quiz:report_spool"

// RedisSpool is a FIFO list of pending reports. Entries are peeked, delivered
// and only then popped, so a failed delivery leaves the head in place.
type RedisSpool struct {
	rdb *redis.Client
	key string
}

// NewRedisSpool connects using a redis:// URL and pings once.
func NewRedisSpool(ctx context.Context, rawURL, key string) (*RedisSpool, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	if key == "" {
		key = DefaultSpoolKey
	}
	return &RedisSpool{rdb: rdb, key: key}, nil
}

func (s *RedisSpool) Enqueue(ctx context.Context, r Report) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, s.key, buf).Err()
}

func (s *RedisSpool) Drain(ctx context.Context, fn func(Report) error) (int, error) {
	n := 0
	for {
		raw, err := s.rdb.LIndex(ctx, s.key, 0).Bytes()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		var r Report
		if err := json.Unmarshal(raw, &r); err == nil {
			if err := fn(r); err != nil {
				return n, err
			}
			n++
		}
		if err := s.rdb.LPop(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return n, err
		}
	}
}

func (s *RedisSpool) Len(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, s.key).Result()
}

func (s *RedisSpool) Close() error { return s.rdb.Close() }
