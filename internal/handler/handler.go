package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/batch"
	schedulerh "github.com/samthedataman/resumably/internal/handler/scheduler"
	"github.com/samthedataman/resumably/internal/mailbox"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/pipeline"
	"github.com/samthedataman/resumably/internal/render"
	"github.com/samthedataman/resumably/internal/repository"
)

// UserHeader carries the id of the authenticated user
const UserHeader = "X-User-ID"

const userKey = "user_id"

// Pipeline is the classification and drafting flow the handlers drive
type Pipeline interface {
	Classify(ctx context.Context, userID uint, messageID string) (*model.ProcessedEmail, model.JobSignal, error)
	CreateDraft(ctx context.Context, userID uint, req pipeline.DraftRequest) (*pipeline.DraftResult, error)
	SendDraft(ctx context.Context, userID, draftID uint) (*model.EmailDraft, error)
	ArchiveDraft(ctx context.Context, userID, draftID uint) (*model.EmailDraft, error)
	Mailbox(ctx context.Context, userID uint) (mailbox.Mailbox, error)
}

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	Store     repository.Store
	Pipeline  Pipeline
	Queue     batch.Queue
	Renderer  render.Renderer
	Scheduler schedulerh.Scheduler
	Gatherer  prometheus.Gatherer
	// Ping checks the database; nil means there is nothing to check
	Ping func(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store     repository.Store
	pipeline  Pipeline
	queue     batch.Queue
	renderer  render.Renderer
	scheduler schedulerh.Scheduler
	gatherer  prometheus.Gatherer
	ping      func(ctx context.Context) error
}

// NewHandlers creates new HTTP handlers
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		store:     d.Store,
		pipeline:  d.Pipeline,
		queue:     d.Queue,
		renderer:  d.Renderer,
		scheduler: d.Scheduler,
		gatherer:  d.Gatherer,
		ping:      d.Ping,
	}
	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	return h
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api", requireUser())

	emails := api.Group("/emails")
	{
		emails.GET("/scan", h.ScanEmails)
		emails.POST("/classify/:messageId", h.ClassifyEmail)
		emails.POST("/batch-classify", h.BatchClassify)
		emails.GET("/processed", h.GetProcessedEmails)
		emails.GET("/processed/:id", h.GetProcessedEmail)
		emails.POST("/draft", h.CreateDraft)
		emails.GET("/drafts", h.GetDrafts)
		emails.GET("/drafts/:id", h.GetDraft)
		emails.POST("/drafts/:id/send", h.SendDraft)
		emails.POST("/drafts/:id/archive", h.ArchiveDraft)
		emails.GET("/stats", h.GetStats)
	}

	resumes := api.Group("/resumes")
	{
		resumes.GET("", h.GetResumes)
		resumes.POST("", h.CreateResume)
		resumes.GET("/default", h.GetDefaultResume)
		resumes.GET("/:id", h.GetResume)
		resumes.PUT("/:id", h.UpdateResume)
		resumes.DELETE("/:id", h.DeleteResume)
		resumes.POST("/:id/set-default", h.SetDefaultResume)
		resumes.GET("/:id/pdf", h.DownloadResumePDF)
	}

	skills := api.Group("/skills")
	{
		skills.GET("", h.GetSkills)
		skills.POST("", h.CreateSkill)
		skills.PUT("/:id", h.UpdateSkill)
		skills.DELETE("/:id", h.DeleteSkill)
		skills.GET("/categories", h.GetSkillCategories)
		skills.POST("/bulk-import", h.BulkImportSkills)
		skills.GET("/learned", h.GetLearnedSkills)
		skills.GET("/learned/export", h.ExportLearnedSkills)
		skills.POST("/learned/:id/convert", h.ConvertLearnedSkill)
	}

	sched := api.Group("/scheduler")
	{
		sched.POST("/start", schedulerh.Start(h.scheduler))
		sched.POST("/stop", schedulerh.Stop(h.scheduler))
		sched.POST("/run-once", schedulerh.RunOnce(h.scheduler))
		sched.GET("/status", schedulerh.Status(h.scheduler))
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Scheduler: make(map[string]string),
	}

	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			response.Status = "error"
			response.Database = "error"
			logrus.Errorf("Database health check failed: %v", err)
		}
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		response.Scheduler["status"] = "running"
		response.Scheduler["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		response.Scheduler["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Scheduler["status"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// requireUser reads the user id set by the authenticating proxy
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(UserHeader), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing or invalid " + UserHeader + " header",
				Code:    http.StatusUnauthorized,
			})
			return
		}
		c.Set(userKey, uint(id))
		c.Next()
	}
}

func currentUser(c *gin.Context) uint {
	return c.GetUint(userKey)
}

// paramID parses the :id path parameter, answering 400 when it is invalid
func paramID(c *gin.Context, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + what + " ID",
			Code:    http.StatusBadRequest,
		})
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

// fail answers with the status matching err. what names the resource for
// not-found and internal error messages.
func fail(c *gin.Context, err error, what string) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", what+" not found"
	case errors.Is(err, pipeline.ErrNoResume):
		status, code, message = http.StatusBadRequest, "precondition_failed", err.Error()
	case errors.Is(err, mailbox.ErrNotConnected):
		status, code, message = http.StatusBadRequest, "mailbox_not_connected", "Mailbox not connected"
	case errors.Is(err, mailbox.ErrUnsupported):
		status, code, message = http.StatusNotImplemented, "not_supported", err.Error()
	case errors.Is(err, repository.ErrDuplicate):
		status, code, message = http.StatusConflict, "conflict", what+" already exists"
	case errors.Is(err, pipeline.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "invalid_transition", err.Error()
	case errors.Is(err, batch.ErrQueueFull), errors.Is(err, batch.ErrQueueClosed):
		status, code, message = http.StatusServiceUnavailable, "queue_unavailable", err.Error()
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		status, code, message = http.StatusInternalServerError, "internal_error", "Failed to process "+what
	}

	c.JSON(status, ErrorResponse{Error: code, Message: message, Code: status})
}
