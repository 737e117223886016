package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// popTimeout bounds each BRPOP so workers notice a stop request
const popTimeout = time.Second

type redisList interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisQueue keeps tasks on a Redis list so they survive a restart and can
// be drained by several processes.
type RedisQueue struct {
	rdb     redisList
	key     string
	handle  Handler
	workers int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRedisQueue creates a queue on the list at key
func NewRedisQueue(rdb redisList, key string, workers int, handle Handler) *RedisQueue {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisQueue{
		rdb:     rdb,
		key:     key,
		handle:  handle,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit pushes t onto the list
func (q *RedisQueue) Submit(ctx context.Context, t Task) error {
	payload, err := EncodeTask(t)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue batch task: %w", err)
	}
	logrus.WithFields(logrus.Fields{"task_id": t.ID, "messages": len(t.MessageIDs)}).Info("Batch task queued")
	return nil
}

// Start launches the workers
func (q *RedisQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isRunning {
		return
	}
	q.isRunning = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	logrus.Infof("Redis batch queue started on %s with %d workers", q.key, q.workers)
}

func (q *RedisQueue) work() {
	defer q.wg.Done()
	for q.ctx.Err() == nil {
		res, err := q.rdb.BRPop(q.ctx, popTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if q.ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("Failed to pop batch task")
			q.sleep(popTimeout)
			continue
		}
		// BRPOP answers [key, value]
		if len(res) != 2 {
			continue
		}
		t, err := DecodeTask([]byte(res[1]))
		if err != nil {
			logrus.WithError(err).Error("Dropping malformed batch task")
			continue
		}
		safeHandle(q.ctx, q.handle, t)
	}
}

func (q *RedisQueue) sleep(d time.Duration) {
	select {
	case <-q.ctx.Done():
	case <-time.After(d):
	}
}

// Stop cancels the workers and waits for them to return
func (q *RedisQueue) Stop() {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return
	}
	q.isRunning = false
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
