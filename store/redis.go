package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"videolens/types"
)

const (
	resultKeyPrefix = "videolens:analysis:"
	statusKeyPrefix = "videolens:status:"
	indexKey        = "videolens:analyses"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	TTL      time.Duration
}

// Redis keeps results in Redis so they survive relay restarts.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFromEnv creates a Redis store using environment variables
// REDIS_ADDR, REDIS_PASS, REDIS_DB (optional), RESULT_TTL_SECONDS (optional).
func NewRedisFromEnv() (*Redis, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if d := os.Getenv("REDIS_DB"); d != "" {
		if v, err := strconv.Atoi(d); err == nil {
			db = v
		}
	}
	ttl := 24 * time.Hour
	if t := os.Getenv("RESULT_TTL_SECONDS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}
	return NewRedis(RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db, TTL: ttl})
}

// NewRedis creates a Redis store and verifies connectivity.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) SetStatus(ctx context.Context, id string, status types.AnalysisStatus) error {
	return r.client.Set(ctx, statusKeyPrefix+id, string(status), r.ttl).Err()
}

func (r *Redis) GetStatus(ctx context.Context, id string) (types.AnalysisStatus, bool, error) {
	val, err := r.client.Get(ctx, statusKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.AnalysisStatus(val), true, nil
}

func (r *Redis) SaveResult(ctx context.Context, result *types.AnalysisResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, resultKeyPrefix+result.ID, b, r.ttl)
	pipe.Set(ctx, statusKeyPrefix+result.ID, string(result.Status), r.ttl)
	pipe.SAdd(ctx, indexKey, result.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) GetResult(ctx context.Context, id string) (*types.AnalysisResult, bool, error) {
	val, err := r.client.Get(ctx, resultKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result types.AnalysisResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (r *Redis) ListResults(ctx context.Context) ([]*types.AnalysisResult, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*types.AnalysisResult, 0, len(ids))
	for _, id := range ids {
		result, ok, err := r.GetResult(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Expired entry, drop it from the index.
			r.client.SRem(ctx, indexKey, id)
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (r *Redis) DeleteResult(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, resultKeyPrefix+id, statusKeyPrefix+id)
	pipe.SRem(ctx, indexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }
