package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/util"
)

// LikeThread toggles the current user's like on a thread
// POST /api/v1/threads/:id/like
func (h *Handlers) LikeThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	result, err := h.engagement.ToggleLike(c.Request.Context(), userID, threadID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes": result.Count,
		"liked": result.Active,
	})
}

// RepostThread toggles the current user's repost of a thread
// POST /api/v1/threads/:id/repost
func (h *Handlers) RepostThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	result, err := h.engagement.ToggleRepost(c.Request.Context(), userID, threadID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reposts":  result.Count,
		"reposted": result.Active,
	})
}

// BookmarkThread toggles the current user's bookmark on a thread
// POST /api/v1/threads/:id/bookmark
func (h *Handlers) BookmarkThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	result, err := h.engagement.ToggleBookmark(c.Request.Context(), userID, threadID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookmarks": result.Count,
		"saved":     result.Active,
	})
}
