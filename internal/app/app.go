package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/assistant"
	"github.com/samthedataman/resumably/internal/batch"
	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/db"
	"github.com/samthedataman/resumably/internal/events"
	"github.com/samthedataman/resumably/internal/handler"
	"github.com/samthedataman/resumably/internal/llm"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/metrics"
	"github.com/samthedataman/resumably/internal/pipeline"
	"github.com/samthedataman/resumably/internal/render"
	"github.com/samthedataman/resumably/internal/repository"
	"github.com/samthedataman/resumably/internal/router"
	"github.com/samthedataman/resumably/internal/scheduler"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Resumably Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Unknown log level %q, keeping info", cfg.Log.Level)
	}

	ctx := context.Background()
	var closers []io.Closer

	store, ping, err := openStore(cfg.Database)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	engine, err := newCompleter(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if c, ok := engine.(io.Closer); ok {
		closers = append(closers, c)
	}
	completer := llm.Bounded(engine, cfg.LLM.Timeout, m)
	models := llm.Models{Fast: cfg.LLM.FastModel, Quality: cfg.LLM.QualityModel}

	var mailboxes mailbox.Provider
	switch cfg.Mailbox.Provider {
	case "imap":
		imapProvider := mailbox.NewIMAPProvider(cfg.Mailbox)
		closers = append(closers, imapProvider)
		mailboxes = imapProvider
		logrus.Info("Using IMAP mailbox")
	default:
		mailboxes = mailbox.NewGmailProvider(cfg.Mailbox, store.Users)
		logrus.Info("Using Gmail API mailbox")
	}

	var publisher events.Publisher = events.Noop{}
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, rdb)
		publisher = events.NewRedisPublisher(rdb, cfg.Redis.Channel)
	}

	renderer := render.NewChromedpRenderer(cfg.Render)

	p := pipeline.New(pipeline.Deps{
		Store:      *store,
		Mailboxes:  mailboxes,
		Classifier: assistant.NewClassifier(completer, models),
		Extractor:  assistant.NewSkillExtractor(completer, models),
		Tailor:     assistant.NewTailor(completer, models),
		Composer:   assistant.NewComposer(completer, models),
		Renderer:   renderer,
		Events:     publisher,
		Metrics:    m,
	})

	runner := batch.NewRunner(p, publisher, m)
	var queue batch.Queue
	if cfg.Batch.Queue == "redis" {
		queue = batch.NewRedisQueue(rdb, cfg.Batch.QueueKey, cfg.Batch.Workers, runner.Handle)
	} else {
		queue = batch.NewMemoryQueue(cfg.Batch.QueueSize, cfg.Batch.Workers, runner.Handle)
	}
	queue.Start()

	sched := scheduler.NewScheduler(&cfg.Scheduler, p, store.ProcessedEmails, queue, m)

	h := handler.NewHandlers(handler.Deps{
		Store:     *store,
		Pipeline:  p,
		Queue:     queue,
		Renderer:  renderer,
		Scheduler: sched,
		Gatherer:  reg,
		Ping:      ping,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			logrus.Errorf("Failed to stop scheduler: %v", err)
		}
	}
	sched.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	queue.Stop()

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logrus.Errorf("Failed to close %T: %v", c, err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// openStore returns the configured store and a health probe for it. The
// in-memory store has nothing to probe.
func openStore(cfg config.DatabaseConfig) (*repository.Store, func(context.Context) error, error) {
	if cfg.Driver == "memory" {
		logrus.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil, nil
	}

	conn, err := db.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	return repository.NewGormStore(conn), sqlDB.PingContext, nil
}

func newCompleter(ctx context.Context, cfg config.LLMConfig) (llm.Completer, error) {
	switch cfg.Provider {
	case "vertex":
		client, err := llm.NewVertexAIClient(ctx, cfg.ProjectID, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
		}
		logrus.WithField("project", cfg.ProjectID).Info("Using Vertex AI reasoning engine")
		return client, nil
	default:
		client, err := llm.NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		logrus.Info("Using Anthropic reasoning engine")
		return client, nil
	}
}
