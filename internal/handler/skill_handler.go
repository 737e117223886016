package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/samthedataman/resumably/internal/export"
	"github.com/samthedataman/resumably/internal/model"
	"github.com/samthedataman/resumably/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func skillFromRequest(userID uint, req SkillRequest, source model.SkillSource) model.Skill {
	return model.Skill{
		UserID:          userID,
		Name:            req.Name,
		Category:        model.NormalizeCategory(req.Category),
		Proficiency:     req.Proficiency,
		YearsExperience: req.YearsExperience,
		ProofPoints:     req.ProofPoints,
		Keywords:        datatypes.NewJSONSlice(nonNilStrings(req.Keywords)),
		Source:          source,
	}
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// GetSkills returns the profile skills, optionally of one category
func (h *Handlers) GetSkills(c *gin.Context) {
	skills, err := h.store.Skills.List(c.Request.Context(), currentUser(c), c.Query("category"))
	if err != nil {
		fail(c, err, "skills")
		return
	}

	c.JSON(http.StatusOK, skills)
}

// CreateSkill adds a profile skill
func (h *Handlers) CreateSkill(c *gin.Context) {
	var req SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	skill := skillFromRequest(currentUser(c), req, model.SkillSourceManual)
	if err := h.store.Skills.Create(c.Request.Context(), &skill); err != nil {
		fail(c, err, "Skill")
		return
	}

	c.JSON(http.StatusCreated, skill)
}

// UpdateSkill changes a profile skill. The name is the identity and stays.
func (h *Handlers) UpdateSkill(c *gin.Context) {
	id, ok := paramID(c, "skill")
	if !ok {
		return
	}

	var req SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	skill, err := h.store.Skills.Get(ctx, currentUser(c), id)
	if err != nil {
		fail(c, err, "Skill")
		return
	}

	skill.Category = model.NormalizeCategory(req.Category)
	skill.Proficiency = req.Proficiency
	skill.YearsExperience = req.YearsExperience
	skill.ProofPoints = req.ProofPoints
	skill.Keywords = datatypes.NewJSONSlice(nonNilStrings(req.Keywords))

	if err := h.store.Skills.Update(ctx, skill); err != nil {
		fail(c, err, "Skill")
		return
	}

	c.JSON(http.StatusOK, skill)
}

// DeleteSkill removes a profile skill
func (h *Handlers) DeleteSkill(c *gin.Context) {
	id, ok := paramID(c, "skill")
	if !ok {
		return
	}

	if err := h.store.Skills.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, err, "Skill")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Skill deleted"})
}

// GetSkillCategories counts profile skills per category
func (h *Handlers) GetSkillCategories(c *gin.Context) {
	skills, err := h.store.Skills.List(c.Request.Context(), currentUser(c), "")
	if err != nil {
		fail(c, err, "skills")
		return
	}

	categories := map[string]int{}
	for _, s := range skills {
		categories[s.Category]++
	}

	c.JSON(http.StatusOK, categories)
}

// BulkImportSkills adds many skills, skipping those already on the profile
func (h *Handlers) BulkImportSkills(c *gin.Context) {
	var reqs []SkillRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	userID := currentUser(c)
	var response BulkImportResponse
	for _, req := range reqs {
		skill := skillFromRequest(userID, req, model.SkillSourceImport)
		err := h.store.Skills.Create(ctx, &skill)
		if errors.Is(err, repository.ErrDuplicate) {
			response.Skipped++
			continue
		}
		if err != nil {
			fail(c, err, "skills")
			return
		}
		response.Imported++
	}
	response.Message = fmt.Sprintf("Imported %d skills, skipped %d duplicates", response.Imported, response.Skipped)

	c.JSON(http.StatusOK, response)
}

// GetLearnedSkills returns the skill ledger, most mentioned first
func (h *Handlers) GetLearnedSkills(c *gin.Context) {
	learned, err := h.store.Ledger.List(c.Request.Context(), currentUser(c), 0)
	if err != nil {
		fail(c, err, "learned skills")
		return
	}

	if category := c.Query("category"); category != "" {
		filtered := make([]model.SkillLearning, 0, len(learned))
		for _, l := range learned {
			if l.Category == category {
				filtered = append(filtered, l)
			}
		}
		learned = filtered
	}

	c.JSON(http.StatusOK, learned)
}

// ConvertLearnedSkill copies a ledger entry onto the profile
func (h *Handlers) ConvertLearnedSkill(c *gin.Context) {
	id, ok := paramID(c, "learned skill")
	if !ok {
		return
	}

	proficiency := c.DefaultQuery("proficiency", "intermediate")
	var years *float64
	if raw := c.Query("years_experience"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			badRequest(c, "years_experience must be a non-negative number")
			return
		}
		years = &v
	}

	ctx := c.Request.Context()
	userID := currentUser(c)
	learned, err := h.store.Ledger.Get(ctx, userID, id)
	if err != nil {
		fail(c, err, "Learned skill")
		return
	}

	skill := model.Skill{
		UserID:          userID,
		Name:            learned.SkillName,
		Category:        learned.Category,
		Proficiency:     proficiency,
		YearsExperience: years,
		Keywords:        datatypes.NewJSONSlice([]string{}),
		Source:          model.SkillSourceLearned,
	}
	if err := h.store.Skills.Create(ctx, &skill); err != nil {
		fail(c, err, "Skill")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Skill converted", "skill_id": skill.ID})
}

// ExportLearnedSkills downloads the skill ledger as a spreadsheet
func (h *Handlers) ExportLearnedSkills(c *gin.Context) {
	learned, err := h.store.Ledger.List(c.Request.Context(), currentUser(c), 0)
	if err != nil {
		fail(c, err, "learned skills")
		return
	}

	var buf bytes.Buffer
	if err := export.LearnedSkills(&buf, learned); err != nil {
		fail(c, err, "learned skills export")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="learned_skills.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
