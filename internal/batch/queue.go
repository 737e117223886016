package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("batch queue is full")
	ErrQueueClosed = errors.New("batch queue is closed")
)

// Task is one background classification request
type Task struct {
	ID          string    `json:"id"`
	UserID      uint      `json:"user_id"`
	MessageIDs  []string  `json:"message_ids"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewTask creates a task with a fresh id
func NewTask(userID uint, messageIDs []string) Task {
	return Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		MessageIDs:  messageIDs,
		SubmittedAt: time.Now().UTC(),
	}
}

// EncodeTask returns the JSON representation of a task
func EncodeTask(t Task) ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTask parses a JSON payload into a Task
func DecodeTask(payload []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if t.ID == "" {
		return Task{}, errors.New("decode task: missing id")
	}
	return t, nil
}

// Handler processes a task. Runner.Handle is the production handler.
type Handler func(ctx context.Context, t Task)

// Queue accepts tasks for background processing. Submit returns once the
// task is queued, never after it ran.
type Queue interface {
	Submit(ctx context.Context, t Task) error
	Start()
	Stop()
}

// safeHandle runs h and contains any panic so one task cannot kill a worker
func safeHandle(ctx context.Context, h Handler, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithFields(logrus.Fields{"task_id": t.ID, "panic": fmt.Sprint(rec)}).Error("Batch task panicked")
		}
	}()
	h(ctx, t)
}

// MemoryQueue is a buffered channel drained by a fixed pool of goroutines
type MemoryQueue struct {
	tasks   chan Task
	handle  Handler
	workers int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	closed    bool
}

// NewMemoryQueue creates a queue holding up to size pending tasks
func NewMemoryQueue(size, workers int, handle Handler) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{
		tasks:   make(chan Task, size),
		handle:  handle,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit queues t without blocking
func (q *MemoryQueue) Submit(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- t:
		logrus.WithFields(logrus.Fields{"task_id": t.ID, "messages": len(t.MessageIDs)}).Info("Batch task queued")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Start launches the workers
func (q *MemoryQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isRunning || q.closed {
		return
	}
	q.isRunning = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	logrus.Infof("Batch queue started with %d workers", q.workers)
}

func (q *MemoryQueue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case t := <-q.tasks:
			safeHandle(q.ctx, q.handle, t)
		}
	}
}

// Stop refuses new tasks, cancels running ones and waits for the workers
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.isRunning = false
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	if pending := len(q.tasks); pending > 0 {
		logrus.Warnf("Batch queue stopped with %d tasks pending", pending)
	}
}
