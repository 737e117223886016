package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect() (Handler, <-chan Task) {
	ch := make(chan Task, 8)
	return func(ctx context.Context, t Task) { ch <- t }, ch
}

func waitTask(t *testing.T, ch <-chan Task) Task {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("task was not handled")
		return Task{}
	}
}

func TestTaskEncoding(t *testing.T) {
	task := NewTask(3, []string{"a", "b"})
	require.NotEmpty(t, task.ID)

	payload, err := EncodeTask(task)
	require.NoError(t, err)
	got, err := DecodeTask(payload)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.MessageIDs, got.MessageIDs)

	_, err = DecodeTask([]byte(`{"user_id":3}`))
	assert.Error(t, err)
	_, err = DecodeTask([]byte(`not json`))
	assert.Error(t, err)
}

func TestMemoryQueueRunsTasks(t *testing.T) {
	handle, ch := collect()
	q := NewMemoryQueue(4, 2, handle)
	q.Start()
	defer q.Stop()

	task := NewTask(1, []string{"m1"})
	require.NoError(t, q.Submit(context.Background(), task))
	assert.Equal(t, task.ID, waitTask(t, ch).ID)
}

func TestMemoryQueueSurvivesPanickingTask(t *testing.T) {
	ch := make(chan Task, 2)
	q := NewMemoryQueue(4, 1, func(ctx context.Context, t Task) {
		if t.UserID == 0 {
			panic("bad task")
		}
		ch <- t
	})
	q.Start()
	defer q.Stop()

	require.NoError(t, q.Submit(context.Background(), NewTask(0, nil)))
	good := NewTask(1, []string{"m1"})
	require.NoError(t, q.Submit(context.Background(), good))
	assert.Equal(t, good.ID, waitTask(t, ch).ID)
}

func TestMemoryQueueFullAndClosed(t *testing.T) {
	handle, _ := collect()
	q := NewMemoryQueue(1, 1, handle)

	require.NoError(t, q.Submit(context.Background(), NewTask(1, nil)))
	assert.ErrorIs(t, q.Submit(context.Background(), NewTask(1, nil)), ErrQueueFull)

	q.Stop()
	assert.ErrorIs(t, q.Submit(context.Background(), NewTask(1, nil)), ErrQueueClosed)
}

// fakeList is an in-memory Redis list
type fakeList struct {
	mu    sync.Mutex
	items map[string][]string
}

func (f *fakeList) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case []byte:
			s = string(val)
		case string:
			s = val
		}
		f.items[key] = append([]string{s}, f.items[key]...)
	}
	return redis.NewIntResult(int64(len(f.items[key])), nil)
}

func (f *fakeList) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	for _, key := range keys {
		if list := f.items[key]; len(list) > 0 {
			last := list[len(list)-1]
			f.items[key] = list[:len(list)-1]
			f.mu.Unlock()
			return redis.NewStringSliceResult([]string{key, last}, nil)
		}
	}
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	case <-time.After(10 * time.Millisecond):
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
}

func TestRedisQueueRoundTrip(t *testing.T) {
	list := &fakeList{items: map[string][]string{}}
	handle, ch := collect()
	q := NewRedisQueue(list, "resumably:batch", 1, handle)

	first := NewTask(1, []string{"m1"})
	second := NewTask(1, []string{"m2"})
	require.NoError(t, q.Submit(context.Background(), first))
	require.NoError(t, q.Submit(context.Background(), second))
	assert.Len(t, list.items["resumably:batch"], 2)

	q.Start()
	defer q.Stop()

	// LPUSH + BRPOP is first in, first out
	assert.Equal(t, first.ID, waitTask(t, ch).ID)
	assert.Equal(t, second.ID, waitTask(t, ch).ID)
}

func TestRedisQueueDropsMalformedTasks(t *testing.T) {
	list := &fakeList{items: map[string][]string{"k": {"garbage"}}}
	handle, ch := collect()
	q := NewRedisQueue(list, "k", 1, handle)
	q.Start()
	defer q.Stop()

	good := NewTask(2, []string{"m1"})
	require.NoError(t, q.Submit(context.Background(), good))
	assert.Equal(t, good.ID, waitTask(t, ch).ID)
}
