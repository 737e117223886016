package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/batch"
	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/metrics"
	"github.com/samthedataman/resumably/internal/repository"
)

// Mailboxes resolves the mailbox of a user
type Mailboxes interface {
	Mailbox(ctx context.Context, userID uint) (mailbox.Mailbox, error)
}

// ScanResult describes one scan cycle
type ScanResult struct {
	Found     int    `json:"found"`
	Submitted int    `json:"submitted"`
	TaskID    string `json:"task_id,omitempty"`
}

// Scheduler periodically scans the configured user's mailbox and queues new
// messages for classification
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	mailboxes Mailboxes
	processed repository.ProcessedEmails
	queue     batch.Queue
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, mailboxes Mailboxes, processed repository.ProcessedEmails, queue batch.Queue, metrics *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		config:    cfg,
		mailboxes: mailboxes,
		processed: processed,
		queue:     queue,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	// A previous Stop cancelled the old context
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.scan)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()
	s.cron.Remove(s.entryID)

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) scan() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping scan cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	if _, err := s.runScan(ctx); err != nil {
		logrus.WithError(err).Error("Scheduled mailbox scan failed")
	}
}

// runScan lists matching messages and queues those not yet processed
func (s *Scheduler) runScan(ctx context.Context) (*ScanResult, error) {
	s.wg.Add(1)
	defer s.wg.Done()

	startTime := time.Now()
	userID := s.config.UserID
	log := logrus.WithField("user_id", userID)
	log.Info("Starting mailbox scan cycle")

	if s.metrics != nil {
		s.metrics.ScanCount.Inc()
	}

	box, err := s.mailboxes.Mailbox(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mailbox: %w", err)
	}
	page, err := box.ListMessages(ctx, s.config.Query, s.config.MaxResults, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	result := &ScanResult{Found: len(page.Messages)}
	var ids []string
	for _, msg := range page.Messages {
		_, err := s.processed.FindByMessageID(ctx, userID, msg.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			log.WithError(err).WithField("message_id", msg.ID).Warn("Failed to check processed state")
			continue
		}
		ids = append(ids, msg.ID)
	}

	if len(ids) > 0 {
		task := batch.NewTask(userID, ids)
		if err := s.queue.Submit(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to submit batch task: %w", err)
		}
		result.Submitted = len(ids)
		result.TaskID = task.ID
	}

	log.WithFields(logrus.Fields{
		"found":     result.Found,
		"submitted": result.Submitted,
	}).Infof("Mailbox scan cycle completed in %v", time.Since(startTime))
	return result, nil
}

// RunOnce runs a scan immediately (for manual triggering)
func (s *Scheduler) RunOnce(ctx context.Context) (*ScanResult, error) {
	logrus.Info("Running mailbox scan once")
	return s.runScan(ctx)
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// Wait waits for running scans to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
