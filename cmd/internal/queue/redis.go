package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "bq:"
	failedSuffix       = ":failed"
	blockTimeout       = 5 * time.Second
)

// RedisQueue keeps one list per job key. Producers RPUSH and workers BLPOP,
// so each job is delivered to a single worker.
type RedisQueue struct {
	rdb    redis.Cmdable
	prefix string
	keys   []string
}

func NewRedisQueue(rdb redis.Cmdable, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisQueue{rdb: rdb, prefix: prefix}
}

// Listen sets the job keys Next pops from.
func (q *RedisQueue) Listen(keys ...string) *RedisQueue {
	q.keys = keys
	return q
}

func (q *RedisQueue) Push(ctx context.Context, job *Job) error {
	return q.rpush(ctx, q.list(job.Key), job)
}

func (q *RedisQueue) DeadLetter(ctx context.Context, job *Job) error {
	return q.rpush(ctx, q.list(job.Key)+failedSuffix, job)
}

func (q *RedisQueue) Next(ctx context.Context) (*Job, error) {
	if len(q.keys) == 0 {
		return nil, errors.New("redis queue: no keys to listen on")
	}

	lists := make([]string, len(q.keys))
	for i, k := range q.keys {
		lists[i] = q.list(k)
	}

	res, err := q.rdb.BLPop(ctx, blockTimeout, lists...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("redis queue: unexpected BLPOP reply %v", res)
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("redis queue: decode job from %s: %w", res[0], err)
	}
	if job.Key == "" {
		job.Key = strings.TrimPrefix(res[0], q.prefix)
	}
	return &job, nil
}

func (q *RedisQueue) rpush(ctx context.Context, list string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return q.rdb.RPush(ctx, list, data).Err()
}

func (q *RedisQueue) list(key string) string {
	return q.prefix + key
}
