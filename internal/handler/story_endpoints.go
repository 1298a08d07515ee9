package handler

import (
	"errors"
	"net/http"

	"alterstory-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *StoryHandler) listFeed(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	stories, next, err := h.storyService.ListFeed(c.Request.Context(), cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, stories, next)
}

func (h *StoryHandler) listPopular(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	voteType := models.VoteType(c.Query("vote_type"))
	timeframe := c.DefaultQuery("timeframe", "all")

	stories, next, err := h.storyService.ListPopular(c.Request.Context(), voteType, timeframe, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, stories, next)
}

func (h *StoryHandler) searchStories(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	stories, next, err := h.storyService.Search(c.Request.Context(), c.Query("q"), cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, stories, next)
}

func (h *StoryHandler) createRoot(c *gin.Context) {
	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	story, err := h.storyService.CreateRoot(c.Request.Context(), actorID(c), req.Title, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	rootStoriesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, story)
}

func (h *StoryHandler) attemptContinuation(c *gin.Context) {
	rootID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req continuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}
	parentID := rootID
	if req.ParentID != "" {
		parsed, err := uuid.Parse(req.ParentID)
		if err != nil {
			handleServiceError(c, models.NewValidationError("parent_id", "Parent id must be a valid UUID"))
			return
		}
		parentID = parsed
	}

	story, err := h.storyService.AttemptContinuation(c.Request.Context(), actorID(c), parentID, rootID, req.Title, req.Content)
	if err != nil {
		continuationAttemptsTotal.WithLabelValues(continuationResult(err)).Inc()
		handleServiceError(c, err)
		return
	}
	continuationAttemptsTotal.WithLabelValues("admitted").Inc()
	c.JSON(http.StatusCreated, story)
}

// continuationResult - метка метрики для отклоненной попытки.
func continuationResult(err error) string {
	var validationErr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrAlreadyContributed):
		return "already_contributed"
	case errors.Is(err, models.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.As(err, &validationErr):
		return "invalid"
	default:
		return "error"
	}
}

func (h *StoryHandler) getStory(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.storyService.GetStoryWithChildren(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *StoryHandler) getBreadcrumbs(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := h.storyService.GetBreadcrumbs(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": path})
}

// getTree отдает дерево плоским списком, а с ?view=nested - вложенной структурой.
// current выделяет узел, который сейчас читает пользователь.
func (h *StoryHandler) getTree(c *gin.Context) {
	rootID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if c.Query("view") != "nested" {
		nodes, err := h.storyService.GetTree(c.Request.Context(), rootID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": nodes})
		return
	}

	currentID := uuid.Nil
	if current := c.Query("current"); current != "" {
		parsed, err := uuid.Parse(current)
		if err != nil {
			handleServiceError(c, models.NewValidationError("current", "Current story id must be a valid UUID"))
			return
		}
		currentID = parsed
	}
	nested, err := h.storyService.GetNestedTree(c.Request.Context(), rootID, currentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nested})
}

func (h *StoryHandler) getContributionStatus(c *gin.Context) {
	rootID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	status, err := h.storyService.GetContributionStatus(c.Request.Context(), actorID(c), rootID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *StoryHandler) recountContinuations(c *gin.Context) {
	result, err := h.maintenanceService.RecountContinuations(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Admin triggered continuation recount",
		zap.String("adminID", actorID(c).String()), zap.Int64("fixed", result.Fixed))
	c.JSON(http.StatusOK, result)
}

func (h *StoryHandler) reconcileLedger(c *gin.Context) {
	result, err := h.maintenanceService.ReconcileLedger(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Admin triggered ledger reconciliation",
		zap.String("adminID", actorID(c).String()), zap.Int64("fixed", result.Fixed))
	c.JSON(http.StatusOK, result)
}
