package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strandhq/strand/backend/internal/feed"
	"github.com/strandhq/strand/backend/internal/util"
)

// listQueryFromRequest reads the shared feed query parameters. Limit is
// clamped later by the engine.
func listQueryFromRequest(c *gin.Context) feed.ListQuery {
	return feed.ListQuery{
		Cursor:  c.Query("cursor"),
		Limit:   util.ParseInt(c.Query("limit"), 0),
		OwnerID: c.Query("user_id"),
	}
}

// GetFeed returns the global feed, optionally scoped to one author.
// Anonymous reads are allowed; they just lack personalization flags.
// GET /api/v1/feed
func (h *Handlers) GetFeed(c *gin.Context) {
	page, err := h.feed.Threads(c.Request.Context(), util.OptionalUserID(c), listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRecommendedFeed returns threads ranked by decayed popularity score
// GET /api/v1/feed/recommendations
func (h *Handlers) GetRecommendedFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, err := h.feed.Recommended(c.Request.Context(), userID, listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetFollowingFeed returns threads from the user and accounts they follow
// GET /api/v1/feed/following
func (h *Handlers) GetFollowingFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, err := h.feed.Following(c.Request.Context(), userID, listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetLikedFeed returns the user's own threads they have liked
// GET /api/v1/feed/likes
func (h *Handlers) GetLikedFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, err := h.feed.Liked(c.Request.Context(), userID, listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetBookmarkedFeed returns threads the user has bookmarked
// GET /api/v1/feed/bookmarks
func (h *Handlers) GetBookmarkedFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, err := h.feed.Bookmarked(c.Request.Context(), userID, listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRepostedFeed returns threads the user has reposted
// GET /api/v1/feed/reposts
func (h *Handlers) GetRepostedFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, err := h.feed.Reposted(c.Request.Context(), userID, listQueryFromRequest(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
