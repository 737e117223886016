package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/samthedataman/resumably/internal/document"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/render"
)

// GetResumes returns all resumes of the user
func (h *Handlers) GetResumes(c *gin.Context) {
	resumes, err := h.store.Resumes.List(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err, "resumes")
		return
	}

	c.JSON(http.StatusOK, resumes)
}

// CreateResume stores a new resume. The first resume becomes the default.
func (h *Handlers) CreateResume(c *gin.Context) {
	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resume := model.Resume{
		UserID:         currentUser(c),
		Name:           req.Name,
		IsDefault:      req.IsDefault,
		PersonalInfo:   datatypes.JSONMap(req.PersonalInfo),
		Summary:        req.Summary,
		Skills:         datatypes.JSONMap(req.Skills),
		Experience:     datatypes.NewJSONSlice(req.Experience),
		Education:      datatypes.NewJSONSlice(req.Education),
		Projects:       datatypes.NewJSONSlice(req.Projects),
		Certifications: datatypes.NewJSONSlice(req.Certifications),
	}

	if err := h.store.Resumes.Create(c.Request.Context(), &resume); err != nil {
		fail(c, err, "resume")
		return
	}

	c.JSON(http.StatusCreated, resume)
}

// GetDefaultResume returns the default resume
func (h *Handlers) GetDefaultResume(c *gin.Context) {
	resume, err := h.store.Resumes.GetDefault(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err, "Default resume")
		return
	}

	c.JSON(http.StatusOK, resume)
}

// GetResume returns a specific resume
func (h *Handlers) GetResume(c *gin.Context) {
	id, ok := paramID(c, "resume")
	if !ok {
		return
	}

	resume, err := h.store.Resumes.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, err, "Resume")
		return
	}

	c.JSON(http.StatusOK, resume)
}

// UpdateResume changes the fields present in the request
func (h *Handlers) UpdateResume(c *gin.Context) {
	id, ok := paramID(c, "resume")
	if !ok {
		return
	}

	var req ResumeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	resume, err := h.store.Resumes.Get(ctx, currentUser(c), id)
	if err != nil {
		fail(c, err, "Resume")
		return
	}

	if req.Name != nil {
		resume.Name = *req.Name
	}
	if req.PersonalInfo != nil {
		resume.PersonalInfo = datatypes.JSONMap(req.PersonalInfo)
	}
	if req.Summary != nil {
		resume.Summary = *req.Summary
	}
	if req.Skills != nil {
		resume.Skills = datatypes.JSONMap(req.Skills)
	}
	if req.Experience != nil {
		resume.Experience = datatypes.NewJSONSlice(*req.Experience)
	}
	if req.Education != nil {
		resume.Education = datatypes.NewJSONSlice(*req.Education)
	}
	if req.Projects != nil {
		resume.Projects = datatypes.NewJSONSlice(*req.Projects)
	}
	if req.Certifications != nil {
		resume.Certifications = datatypes.NewJSONSlice(*req.Certifications)
	}

	if err := h.store.Resumes.Update(ctx, resume); err != nil {
		fail(c, err, "Resume")
		return
	}

	c.JSON(http.StatusOK, resume)
}

// DeleteResume deletes a resume
func (h *Handlers) DeleteResume(c *gin.Context) {
	id, ok := paramID(c, "resume")
	if !ok {
		return
	}

	if err := h.store.Resumes.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, err, "Resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Resume deleted"})
}

// SetDefaultResume makes a resume the default one
func (h *Handlers) SetDefaultResume(c *gin.Context) {
	id, ok := paramID(c, "resume")
	if !ok {
		return
	}

	if err := h.store.Resumes.SetDefault(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, err, "Resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Default resume updated"})
}

// DownloadResumePDF renders a stored resume as a PDF attachment
func (h *Handlers) DownloadResumePDF(c *gin.Context) {
	id, ok := paramID(c, "resume")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	resume, err := h.store.Resumes.Get(ctx, currentUser(c), id)
	if err != nil {
		fail(c, err, "Resume")
		return
	}

	doc, err := document.FromResume(resume)
	if err != nil {
		fail(c, err, "resume PDF")
		return
	}
	pdf, err := h.renderer.RenderResumePDF(ctx, doc)
	if err != nil {
		fail(c, err, "resume PDF")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.AttachmentName(doc)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
