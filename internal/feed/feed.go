package feed

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/models"
	"github.com/strandhq/strand/backend/internal/util"
	"gorm.io/gorm"
)

// ListQuery is the shared parameter shape across all feed variants. Fields a
// variant does not use are ignored.
type ListQuery struct {
	Cursor  string
	Limit   int
	OwnerID string
}

// Page is the uniform feed read result.
type Page struct {
	List        []ThreadItem `json:"list"`
	TotalCount  int64        `json:"total_count"`
	HasNextPage bool         `json:"has_next_page"`
	EndCursor   *string      `json:"end_cursor"`
}

// Engine serves the six cursor-paginated feed variants.
//
// Every variant is one filter scope shared by its list query, its
// has-next-page probe and its total count — the probe can never drift from
// the query it answers for, because they are the same SQL filter. Cursors
// are exclusive: a page continues strictly below the last returned id.
type Engine struct {
	db           *gorm.DB
	defaultLimit int
	maxLimit     int
	minScore     float64
}

// NewEngine creates a feed engine. minScore is the recommendation score
// floor; threads below it never appear in the recommended feed.
func NewEngine(db *gorm.DB, defaultLimit, maxLimit int, minScore float64) *Engine {
	return &Engine{
		db:           db,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		minScore:     minScore,
	}
}

// variant couples a filter scope with the ordering it pages under.
type variant struct {
	scope func(*gorm.DB) *gorm.DB
	order string
}

const (
	orderRecent = "threads.created_at DESC, threads.id DESC"
	orderScore  = "thread_stats.score DESC, thread_stats.thread_id DESC"
)

func (e *Engine) variantAll(q ListQuery) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			db = db.Where("threads.deleted = ?", false)
			if q.OwnerID != "" {
				db = db.Where("threads.user_id = ?", q.OwnerID)
			}
			return db
		},
		order: orderRecent,
	}
}

func (e *Engine) variantRecommended(viewerID string) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			return db.
				Joins("JOIN thread_stats ON thread_stats.thread_id = threads.id").
				Where("threads.deleted = ?", false).
				Where("threads.user_id <> ?", viewerID).
				Where("thread_stats.score >= ?", e.minScore)
		},
		order: orderScore,
	}
}

func (e *Engine) variantFollowing(viewerID string) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			followees := e.db.Model(&models.Follow{}).
				Select("followee_id").
				Where("follower_id = ?", viewerID)
			return db.
				Where("threads.deleted = ?", false).
				Where("threads.user_id = ? OR threads.user_id IN (?)", viewerID, followees)
		},
		order: orderRecent,
	}
}

// variantLiked scopes to the viewer's own threads that the viewer has liked,
// matching the reference profile-page query shape.
func (e *Engine) variantLiked(viewerID string) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			return db.
				Where("threads.deleted = ?", false).
				Where("threads.user_id = ?", viewerID).
				Where("EXISTS (SELECT 1 FROM thread_likes WHERE thread_likes.thread_id = threads.id AND thread_likes.user_id = ?)", viewerID)
		},
		order: orderRecent,
	}
}

func (e *Engine) variantBookmarked(viewerID string) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			return db.
				Where("threads.deleted = ?", false).
				Where("EXISTS (SELECT 1 FROM thread_bookmarks WHERE thread_bookmarks.thread_id = threads.id AND thread_bookmarks.user_id = ?)", viewerID)
		},
		order: orderRecent,
	}
}

func (e *Engine) variantReposted(viewerID string) variant {
	return variant{
		scope: func(db *gorm.DB) *gorm.DB {
			return db.
				Where("threads.deleted = ?", false).
				Where("EXISTS (SELECT 1 FROM thread_reposts WHERE thread_reposts.thread_id = threads.id AND thread_reposts.user_id = ?)", viewerID)
		},
		order: orderRecent,
	}
}

// Threads pages the global feed, optionally filtered to one owner.
// viewerID may be empty for anonymous reads.
func (e *Engine) Threads(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantAll(q))
}

// Recommended pages threads by descending ranking score, excluding the
// viewer's own threads.
func (e *Engine) Recommended(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantRecommended(viewerID))
}

// Following pages threads by the viewer and the accounts the viewer follows.
func (e *Engine) Following(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantFollowing(viewerID))
}

// Liked pages the viewer's own threads that the viewer has liked.
func (e *Engine) Liked(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantLiked(viewerID))
}

// Bookmarked pages threads the viewer has bookmarked.
func (e *Engine) Bookmarked(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantBookmarked(viewerID))
}

// Reposted pages threads the viewer has reposted.
func (e *Engine) Reposted(ctx context.Context, viewerID string, q ListQuery) (*Page, error) {
	return e.page(ctx, viewerID, q, e.variantReposted(viewerID))
}

// Per-variant has-next-page probes. Each re-issues its variant's exact
// filter below the cursor as an existence check.

func (e *Engine) HasNextThreadsPage(ctx context.Context, endCursor string, q ListQuery) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantAll(q))
}

func (e *Engine) HasNextRecommendedPage(ctx context.Context, viewerID, endCursor string) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantRecommended(viewerID))
}

func (e *Engine) HasNextFollowingPage(ctx context.Context, viewerID, endCursor string) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantFollowing(viewerID))
}

func (e *Engine) HasNextLikedPage(ctx context.Context, viewerID, endCursor string) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantLiked(viewerID))
}

func (e *Engine) HasNextBookmarkedPage(ctx context.Context, viewerID, endCursor string) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantBookmarked(viewerID))
}

func (e *Engine) HasNextRepostedPage(ctx context.Context, viewerID, endCursor string) (bool, error) {
	return e.hasNextPage(ctx, endCursor, e.variantReposted(viewerID))
}

// ByID fetches a single live thread with the same projection feed pages use.
func (e *Engine) ByID(ctx context.Context, viewerID, threadID string) (*ThreadItem, error) {
	var thread models.Thread
	err := e.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND deleted = ?", threadID, false).
		First(&thread).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("thread")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	items, err := e.decorate(ctx, viewerID, []models.Thread{thread})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (e *Engine) page(ctx context.Context, viewerID string, q ListQuery, v variant) (*Page, error) {
	limit := util.ClampLimit(q.Limit, e.defaultLimit, e.maxLimit)

	listQ := e.db.WithContext(ctx).
		Model(&models.Thread{}).
		Select("threads.*").
		Scopes(v.scope)
	if q.Cursor != "" {
		listQ = listQ.Where("threads.id < ?", q.Cursor)
	}

	var threads []models.Thread
	err := listQ.Order(v.order).Limit(limit).Preload("User").Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var total int64
	err = e.db.WithContext(ctx).
		Model(&models.Thread{}).
		Scopes(v.scope).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count threads: %w", err)
	}

	page := &Page{TotalCount: total}

	if len(threads) > 0 {
		endCursor := threads[len(threads)-1].ID
		page.EndCursor = &endCursor

		hasNext, err := e.hasNextPage(ctx, endCursor, v)
		if err != nil {
			return nil, err
		}
		page.HasNextPage = hasNext
	}

	page.List, err = e.decorate(ctx, viewerID, threads)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (e *Engine) hasNextPage(ctx context.Context, endCursor string, v variant) (bool, error) {
	var n int64
	err := e.db.WithContext(ctx).
		Model(&models.Thread{}).
		Scopes(v.scope).
		Where("threads.id < ?", endCursor).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to probe next page: %w", err)
	}
	return n > 0, nil
}

// UserSummary is the author/mention projection on feed items.
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// TagSummary is the tag projection on feed items.
type TagSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ThreadItem is one feed entry. LikeCount is counted from edges at read
// time, never the cached stats, so user-facing numbers are always live.
// Liked/Bookmarked/Reposted are viewer-scoped and omitted entirely for
// anonymous reads rather than reported as false.
type ThreadItem struct {
	ID                  string               `json:"id"`
	Text                string               `json:"text"`
	BodyJSON            string               `json:"body_json,omitempty"`
	WhoCanLeaveComments models.WhoCanComment `json:"who_can_leave_comments"`
	HiddenCounts        bool                 `json:"hidden_counts"`
	CreatedAt           time.Time            `json:"created_at"`

	User     UserSummary   `json:"user"`
	Tags     []TagSummary  `json:"tags"`
	Mentions []UserSummary `json:"mentions"`

	LikeCount int64 `json:"like_count"`

	Liked      *bool `json:"liked,omitempty"`
	Bookmarked *bool `json:"bookmarked,omitempty"`
	Reposted   *bool `json:"reposted,omitempty"`
}

// decorate turns raw threads into feed items: live like counts, tag and
// mention associations, and viewer engagement flags, all fetched in grouped
// queries over the page's ids.
func (e *Engine) decorate(ctx context.Context, viewerID string, threads []models.Thread) ([]ThreadItem, error) {
	items := make([]ThreadItem, 0, len(threads))
	if len(threads) == 0 {
		return items, nil
	}

	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}

	db := e.db.WithContext(ctx)

	likeCounts := map[string]int64{}
	var countRows []struct {
		ThreadID string
		N        int64
	}
	err := db.Model(&models.ThreadLike{}).
		Select("thread_id, COUNT(*) AS n").
		Where("thread_id IN ?", ids).
		Group("thread_id").
		Scan(&countRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	for _, row := range countRows {
		likeCounts[row.ThreadID] = row.N
	}

	tags := map[string][]TagSummary{}
	var tagRows []struct {
		ThreadID string
		ID       string
		Name     string
	}
	err = db.Model(&models.ThreadTag{}).
		Select("thread_tags.thread_id, tags.id, tags.name").
		Joins("JOIN tags ON tags.id = thread_tags.tag_id").
		Where("thread_tags.thread_id IN ?", ids).
		Scan(&tagRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	for _, row := range tagRows {
		tags[row.ThreadID] = append(tags[row.ThreadID], TagSummary{ID: row.ID, Name: row.Name})
	}

	mentions := map[string][]UserSummary{}
	var mentionRows []struct {
		ThreadID    string
		ID          string
		Username    string
		DisplayName string
		AvatarURL   string
	}
	err = db.Model(&models.ThreadMention{}).
		Select("thread_mentions.thread_id, users.id, users.username, users.display_name, users.avatar_url").
		Joins("JOIN users ON users.id = thread_mentions.user_id").
		Where("thread_mentions.thread_id IN ?", ids).
		Scan(&mentionRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load mentions: %w", err)
	}
	for _, row := range mentionRows {
		mentions[row.ThreadID] = append(mentions[row.ThreadID], UserSummary{
			ID:          row.ID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			AvatarURL:   row.AvatarURL,
		})
	}

	var liked, bookmarked, reposted map[string]bool
	if viewerID != "" {
		liked, err = e.edgeSet(ctx, &models.ThreadLike{}, viewerID, ids)
		if err != nil {
			return nil, err
		}
		bookmarked, err = e.edgeSet(ctx, &models.ThreadBookmark{}, viewerID, ids)
		if err != nil {
			return nil, err
		}
		reposted, err = e.edgeSet(ctx, &models.ThreadRepost{}, viewerID, ids)
		if err != nil {
			return nil, err
		}
	}

	for _, t := range threads {
		item := ThreadItem{
			ID:                  t.ID,
			Text:                t.Text,
			BodyJSON:            t.BodyJSON,
			WhoCanLeaveComments: t.WhoCanLeaveComments,
			HiddenCounts:        t.HiddenCounts,
			CreatedAt:           t.CreatedAt,
			User: UserSummary{
				ID:          t.User.ID,
				Username:    t.User.Username,
				DisplayName: t.User.DisplayName,
				AvatarURL:   t.User.AvatarURL,
			},
			Tags:      tags[t.ID],
			Mentions:  mentions[t.ID],
			LikeCount: likeCounts[t.ID],
		}
		if item.Tags == nil {
			item.Tags = []TagSummary{}
		}
		if item.Mentions == nil {
			item.Mentions = []UserSummary{}
		}
		if viewerID != "" {
			item.Liked = boolPtr(liked[t.ID])
			item.Bookmarked = boolPtr(bookmarked[t.ID])
			item.Reposted = boolPtr(reposted[t.ID])
		}
		items = append(items, item)
	}
	return items, nil
}

// edgeSet returns the subset of ids the viewer has an edge on, as a set.
func (e *Engine) edgeSet(ctx context.Context, model interface{}, viewerID string, ids []string) (map[string]bool, error) {
	var hit []string
	err := e.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND thread_id IN ?", viewerID, ids).
		Pluck("thread_id", &hit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load engagement flags: %w", err)
	}
	set := make(map[string]bool, len(hit))
	for _, id := range hit {
		set[id] = true
	}
	return set, nil
}

func boolPtr(b bool) *bool {
	return &b
}
