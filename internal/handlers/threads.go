package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/threads"
	"github.com/strandhq/strand/backend/internal/util"
)

// CreateThread posts a new thread for the current user
// POST /api/v1/threads
func (h *Handlers) CreateThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var input threads.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithAPIError(c, errors.BadRequest("invalid request body"))
		return
	}

	threadID, err := h.threads.Create(c.Request.Context(), userID, input)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": threadID})
}

// GetThread returns a single thread with the feed projection
// GET /api/v1/threads/:id
func (h *Handlers) GetThread(c *gin.Context) {
	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	item, err := h.feed.ByID(c.Request.Context(), util.OptionalUserID(c), threadID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateThread applies a partial update to an owned thread
// PATCH /api/v1/threads/:id
func (h *Handlers) UpdateThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	var input threads.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithAPIError(c, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.threads.Update(c.Request.Context(), userID, threadID, input); err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": threadID})
}

// DeleteThread soft-deletes an owned thread
// DELETE /api/v1/threads/:id
func (h *Handlers) DeleteThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	threadID := c.Param("id")
	if threadID == "" {
		util.RespondWithAPIError(c, errors.BadRequest("thread ID is required"))
		return
	}

	if err := h.threads.Delete(c.Request.Context(), userID, threadID); err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
