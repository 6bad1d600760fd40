package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr, "db", db)
	return client, nil
}

// RedisRepository keeps one hash per delivery record plus a sorted set
// indexing row keys by send time, which makes retention purges range scans.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) recordKey(rowKey string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, ArticlePartition, rowKey)
}

func (r *RedisRepository) indexKey() string {
	return fmt.Sprintf("%s:%s:sent_at", r.prefix, ArticlePartition)
}

func (r *RedisRepository) Exists(ctx context.Context, rowKey string) (bool, error) {
	n, err := r.client.Exists(ctx, r.recordKey(rowKey)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query delivery record: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Upsert(ctx context.Context, record Record) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordKey(record.RowKey),
			"partition_key", record.PartitionKey,
			"row_key", record.RowKey,
			"url", record.URL,
			"sent_at", formatSentAt(record.SentAt),
		)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(record.SentAt.UnixMilli()),
			Member: record.RowKey,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert delivery record: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	rowKeys, err := r.client.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan delivery index: %w", err)
	}
	if len(rowKeys) == 0 {
		return 0, nil
	}

	keys := make([]string, len(rowKeys))
	members := make([]any, len(rowKeys))
	for i, rowKey := range rowKeys {
		keys[i] = r.recordKey(rowKey)
		members[i] = rowKey
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old delivery records: %w", err)
	}
	return deleted.Val(), nil
}

func (r *RedisRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count delivery records: %w", err)
	}
	return n, nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
