package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *StoryHandler) getVotes(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	stats, err := h.voteService.GetVoteStats(ctx, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	userVote, err := h.voteService.GetUserVote(ctx, actorID(c), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteStatsResponse{VoteStats: stats, UserVote: userVote})
}

func (h *StoryHandler) castVote(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	state, err := h.voteService.CastVote(c.Request.Context(), actorID(c), storyID, req.VoteType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	votesTotal.WithLabelValues(string(req.VoteType)).Inc()
	c.JSON(http.StatusOK, state)
}

func (h *StoryHandler) retractVote(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	state, err := h.voteService.RetractVote(c.Request.Context(), actorID(c), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	votesTotal.WithLabelValues("retract").Inc()
	c.JSON(http.StatusOK, state)
}

func (h *StoryHandler) listComments(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	comments, next, err := h.commentService.ListComments(c.Request.Context(), storyID, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, comments, next)
}

func (h *StoryHandler) countComments(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	count, err := h.commentService.CountComments(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentCountResponse{Count: count})
}

func (h *StoryHandler) addComment(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), actorID(c), storyID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	commentsTotal.WithLabelValues("add").Inc()
	c.JSON(http.StatusCreated, comment)
}

func (h *StoryHandler) editComment(c *gin.Context) {
	commentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.EditComment(c.Request.Context(), actorID(c), commentID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	commentsTotal.WithLabelValues("edit").Inc()
	c.JSON(http.StatusOK, comment)
}

func (h *StoryHandler) deleteComment(c *gin.Context) {
	commentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.commentService.DeleteComment(c.Request.Context(), actorID(c), commentID); err != nil {
		handleServiceError(c, err)
		return
	}
	commentsTotal.WithLabelValues("delete").Inc()
	c.Status(http.StatusNoContent)
}
