package handler

import (
	"bufio"
	"net/http"

	"alterstory-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// avatarFormField - имя поля multipart-формы с файлом аватара.
const avatarFormField = "avatar"

// sniffLen - сколько байт нужно http.DetectContentType.
const sniffLen = 512

func (h *StoryHandler) getProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// resolveUser находит id пользователя по username из пути.
func (h *StoryHandler) resolveUser(c *gin.Context) (uuid.UUID, bool) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return uuid.Nil, false
	}
	return profile.ID, true
}

func (h *StoryHandler) getUserStats(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	stats, err := h.profileService.GetUserStatistics(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StoryHandler) listUserStories(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	stories, next, err := h.profileService.ListUserStories(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, stories, next)
}

func (h *StoryHandler) listUserContributions(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	list, next, err := h.profileService.ListUserContributions(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, list, next)
}

func (h *StoryHandler) listUserVotes(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	votes, next, err := h.voteService.ListUserVotes(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, votes, next)
}

func (h *StoryHandler) listUserComments(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	comments, next, err := h.commentService.ListUserComments(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPage(c, http.StatusOK, comments, next)
}

func (h *StoryHandler) getMyProfile(c *gin.Context) {
	profile, err := h.profileService.GetMyProfile(c.Request.Context(), actorID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *StoryHandler) upsertMyProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}
	profile, err := h.profileService.UpsertMyProfile(c.Request.Context(), actorID(c), req.Username, req.DisplayName, req.Bio)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// uploadAvatar принимает multipart-форму с полем "avatar".
// Тип файла определяется по содержимому, заголовок клиента не используется.
func (h *StoryHandler) uploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		handleServiceError(c, models.NewValidationError(avatarFormField, "Avatar file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded avatar", zap.Error(err))
		abortBadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, sniffLen)
	head, _ := reader.Peek(sniffLen)
	contentType := http.DetectContentType(head)

	profile, err := h.profileService.UploadAvatar(c.Request.Context(), actorID(c), reader, fileHeader.Size, contentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
