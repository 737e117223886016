package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/samthedataman/resumably/internal/batch"
	"github.com/samthedataman/resumably/internal/pipeline"
)

const (
	defaultScanQuery = "is:unread category:primary"
	topSkillsLimit   = 10
)

// ScanEmails lists mailbox messages without classifying them
func (h *Handlers) ScanEmails(c *gin.Context) {
	maxResults, err := strconv.ParseInt(c.DefaultQuery("max_results", "20"), 10, 64)
	if err != nil || maxResults < 1 || maxResults > 100 {
		badRequest(c, "max_results must be between 1 and 100")
		return
	}

	box, err := h.pipeline.Mailbox(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err, "mailbox")
		return
	}

	page, err := box.ListMessages(c.Request.Context(), c.DefaultQuery("query", defaultScanQuery), maxResults, c.Query("page_token"))
	if err != nil {
		fail(c, err, "mailbox scan")
		return
	}

	response := ScanResponse{Emails: make([]MessagePreview, 0, len(page.Messages)), NextPageToken: page.NextPageToken}
	for _, msg := range page.Messages {
		response.Emails = append(response.Emails, MessagePreview{
			MessageID: msg.ID,
			ThreadID:  msg.ThreadID,
			Subject:   msg.Subject,
			Sender:    msg.From,
			Snippet:   msg.Snippet,
			Date:      msg.Date,
		})
	}

	c.JSON(http.StatusOK, response)
}

// ClassifyEmail classifies one message and stores the result
func (h *Handlers) ClassifyEmail(c *gin.Context) {
	messageID := c.Param("messageId")
	if messageID == "" {
		badRequest(c, "message id is required")
		return
	}

	processed, signal, err := h.pipeline.Classify(c.Request.Context(), currentUser(c), messageID)
	if err != nil {
		fail(c, err, "message")
		return
	}

	c.JSON(http.StatusOK, ClassifyResponse{ProcessedEmailID: processed.ID, JobDetails: signal})
}

// BatchClassify queues messages for background classification
func (h *Handlers) BatchClassify(c *gin.Context) {
	var req BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "message_ids must list at least one message id")
		return
	}

	// Submit only queues; workers run the task on their own context
	task := batch.NewTask(currentUser(c), req.MessageIDs)
	if err := h.queue.Submit(c.Request.Context(), task); err != nil {
		fail(c, err, "batch")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Processing %d emails in background", len(req.MessageIDs)),
		"task_id": task.ID,
	})
}

// GetProcessedEmails lists classified messages, newest first
func (h *Handlers) GetProcessedEmails(c *gin.Context) {
	recruiterOnly, _ := strconv.ParseBool(c.DefaultQuery("recruiter_only", "false"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	emails, err := h.store.ProcessedEmails.List(c.Request.Context(), currentUser(c), recruiterOnly, limit)
	if err != nil {
		fail(c, err, "processed emails")
		return
	}

	c.JSON(http.StatusOK, emails)
}

// GetProcessedEmail returns one classified message
func (h *Handlers) GetProcessedEmail(c *gin.Context) {
	id, ok := paramID(c, "email")
	if !ok {
		return
	}

	email, err := h.store.ProcessedEmails.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, err, "Email")
		return
	}

	c.JSON(http.StatusOK, email)
}

// CreateDraft composes a reply with a tailored resume attached
func (h *Handlers) CreateDraft(c *gin.Context) {
	var req pipeline.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "processed_email_id is required")
		return
	}

	result, err := h.pipeline.CreateDraft(c.Request.Context(), currentUser(c), req)
	if err != nil {
		fail(c, err, "Processed email or resume")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetDrafts lists drafts, newest first
func (h *Handlers) GetDrafts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	drafts, err := h.store.Drafts.List(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		fail(c, err, "drafts")
		return
	}

	c.JSON(http.StatusOK, drafts)
}

// GetDraft returns one draft
func (h *Handlers) GetDraft(c *gin.Context) {
	id, ok := paramID(c, "draft")
	if !ok {
		return
	}

	draft, err := h.store.Drafts.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, err, "Draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// SendDraft sends a draft through the mailbox
func (h *Handlers) SendDraft(c *gin.Context) {
	id, ok := paramID(c, "draft")
	if !ok {
		return
	}

	draft, err := h.pipeline.SendDraft(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, err, "Draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// ArchiveDraft archives a draft and removes it from the mailbox
func (h *Handlers) ArchiveDraft(c *gin.Context) {
	id, ok := paramID(c, "draft")
	if !ok {
		return
	}

	draft, err := h.pipeline.ArchiveDraft(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, err, "Draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// GetStats returns dashboard statistics
func (h *Handlers) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	total, recruiter, err := h.store.ProcessedEmails.Count(ctx, userID)
	if err != nil {
		fail(c, err, "stats")
		return
	}
	drafts, err := h.store.Drafts.Count(ctx, userID)
	if err != nil {
		fail(c, err, "stats")
		return
	}
	learned, err := h.store.Ledger.List(ctx, userID, 0)
	if err != nil {
		fail(c, err, "stats")
		return
	}

	stats := DashboardStats{
		TotalEmailsProcessed: total,
		RecruiterEmailsFound: recruiter,
		DraftsCreated:        drafts,
		SkillsLearned:        len(learned),
		TopRequestedSkills:   []SkillCount{},
	}
	for i, l := range learned {
		if i == topSkillsLimit {
			break
		}
		stats.TopRequestedSkills = append(stats.TopRequestedSkills, SkillCount{
			Name:     l.SkillName,
			Category: l.Category,
			Count:    l.OccurrenceCount,
		})
	}

	c.JSON(http.StatusOK, stats)
}
