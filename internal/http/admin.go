package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contest-bot/internal/common/errors"
	"contest-bot/internal/common/middleware"
	"contest-bot/internal/domain/broadcast"
)

const maxLimit = 100

type AdminHandler struct {
	stats      StatsProvider
	rating     RatingProvider
	broadcasts BroadcastLogs
}

func NewAdminHandler(stats StatsProvider, rating RatingProvider, broadcasts BroadcastLogs) *AdminHandler {
	return &AdminHandler{stats: stats, rating: rating, broadcasts: broadcasts}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats", h.GetStats)
	router.GET("/rating", h.GetRating)
	router.GET("/broadcasts", h.ListBroadcasts)
}

// @Summary Contest overview
// @Description Participant count, points in circulation, channels and whether a contest is running
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} stats.Stats "Overview"
// @Failure 401 {object} ErrorResponse "Missing or invalid init data"
// @Failure 403 {object} ErrorResponse "Forbidden - not an admin"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	st, err := h.stats.Get(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Leaderboard
// @Description Top participants by points, banned users excluded
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param limit query int false "Number of rows (1-100)" default(10)
// @Success 200 {object} RatingResponse "Leaderboard"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 401 {object} ErrorResponse "Missing or invalid init data"
// @Failure 403 {object} ErrorResponse "Forbidden - not an admin"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/rating [get]
func (h *AdminHandler) GetRating(c *gin.Context) {
	limit, err := parseLimit(c, 10)
	if err != nil {
		middleware.SendError(c, err)
		return
	}

	users, err := h.rating.Top(c.Request.Context(), limit)
	if err != nil {
		middleware.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRating(users))
}

// @Summary Broadcast history
// @Description Latest broadcast summaries, newest first
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param limit query int false "Number of rows (1-100)" default(20)
// @Success 200 {object} BroadcastsResponse "Broadcast summaries"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 401 {object} ErrorResponse "Missing or invalid init data"
// @Failure 403 {object} ErrorResponse "Forbidden - not an admin"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/broadcasts [get]
func (h *AdminHandler) ListBroadcasts(c *gin.Context) {
	limit, err := parseLimit(c, 20)
	if err != nil {
		middleware.SendError(c, err)
		return
	}

	logs, err := h.broadcasts.List(c.Request.Context(), limit)
	if err != nil {
		middleware.SendError(c, errors.NewDatabaseError("list broadcasts", err))
		return
	}

	items := make([]BroadcastLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, toBroadcastLog(l))
	}
	c.JSON(http.StatusOK, BroadcastsResponse{Items: items})
}

func toBroadcastLog(l broadcast.Log) BroadcastLogResponse {
	return BroadcastLogResponse{
		ID:          l.ID,
		OperatorID:  l.OperatorID,
		Kind:        string(l.Kind),
		Content:     l.Content,
		SentCount:   l.SentCount,
		FailedCount: l.FailedCount,
		CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, errors.NewValidationError("limit", "must be between 1 and 100")
	}
	return limit, nil
}
