package handler

import (
	"strconv"

	"alterstory-server/internal/service"
	"alterstory-server/shared/middleware"
	"alterstory-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryHandler обслуживает HTTP API историй, голосов, комментариев и профилей.
type StoryHandler struct {
	storyService       service.StoryService
	voteService        service.VoteService
	commentService     service.CommentService
	profileService     service.ProfileService
	maintenanceService service.MaintenanceService
	verifier           middleware.TokenVerifier
	logger             *zap.Logger
}

func NewStoryHandler(
	storyService service.StoryService,
	voteService service.VoteService,
	commentService service.CommentService,
	profileService service.ProfileService,
	maintenanceService service.MaintenanceService,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) *StoryHandler {
	return &StoryHandler{
		storyService:       storyService,
		voteService:        voteService,
		commentService:     commentService,
		profileService:     profileService,
		maintenanceService: maintenanceService,
		verifier:           verifier,
		logger:             logger.Named("StoryHandler"),
	}
}

// RegisterRoutes регистрирует маршруты API. writeLimiter применяется к созданию историй
// и комментариев; nil отключает ограничение.
func (h *StoryHandler) RegisterRoutes(router *gin.Engine, writeLimiter gin.HandlerFunc) {
	if writeLimiter == nil {
		writeLimiter = func(c *gin.Context) { c.Next() }
	}
	requireAuth := middleware.RequireAuth(h.verifier, h.logger)
	optionalAuth := middleware.OptionalAuth(h.verifier, h.logger)

	api := router.Group("/api")

	stories := api.Group("/stories")
	{
		stories.GET("", h.listFeed)
		stories.GET("/popular", h.listPopular)
		stories.GET("/search", h.searchStories)
		stories.POST("", requireAuth, writeLimiter, h.createRoot)

		stories.GET("/:id", h.getStory)
		stories.GET("/:id/breadcrumbs", h.getBreadcrumbs)
		stories.GET("/:id/tree", h.getTree)
		stories.GET("/:id/contribution-status", optionalAuth, h.getContributionStatus)
		stories.POST("/:id/continuations", requireAuth, writeLimiter, h.attemptContinuation)

		stories.GET("/:id/votes", optionalAuth, h.getVotes)
		stories.PUT("/:id/vote", requireAuth, h.castVote)
		stories.DELETE("/:id/vote", requireAuth, h.retractVote)

		stories.GET("/:id/comments", h.listComments)
		stories.GET("/:id/comments/count", h.countComments)
		stories.POST("/:id/comments", requireAuth, writeLimiter, h.addComment)
	}

	comments := api.Group("/comments", requireAuth)
	{
		comments.PATCH("/:id", h.editComment)
		comments.DELETE("/:id", h.deleteComment)
	}

	users := api.Group("/users")
	{
		users.GET("/:username", h.getProfile)
		users.GET("/:username/stats", h.getUserStats)
		users.GET("/:username/stories", h.listUserStories)
		users.GET("/:username/contributions", h.listUserContributions)
		users.GET("/:username/votes", h.listUserVotes)
		users.GET("/:username/comments", h.listUserComments)
	}

	me := api.Group("/me", requireAuth)
	{
		me.GET("/profile", h.getMyProfile)
		me.PUT("/profile", h.upsertMyProfile)
		me.POST("/avatar", h.uploadAvatar)
	}

	admin := api.Group("/admin", middleware.RequireAuth(h.verifier, h.logger, models.RoleAdmin))
	{
		admin.POST("/maintenance/continuation-counts", h.recountContinuations)
		admin.POST("/maintenance/ledger", h.reconcileLedger)
	}
}

// actorID возвращает пользователя запроса или uuid.Nil для анонимного.
func actorID(c *gin.Context) uuid.UUID {
	userID, _ := models.GetUserIDFromContext(c.Request.Context())
	return userID
}

// parseUUIDParam разбирает path-параметр. Некорректный id отдает 404, как и несуществующий.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		handleServiceError(c, models.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams читает cursor и limit из query. Отсутствующий limit означает значение по умолчанию.
func pageParams(c *gin.Context) (string, int, bool) {
	cursor := c.Query("cursor")
	limitStr := c.Query("limit")
	if limitStr == "" {
		return cursor, 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		handleServiceError(c, models.NewValidationError("limit", "Limit must be an integer"))
		return "", 0, false
	}
	return cursor, limit, true
}

func respondPage(c *gin.Context, status int, data interface{}, nextCursor string) {
	c.JSON(status, models.PaginatedResponse{Data: data, NextCursor: nextCursor})
}
