package ranking

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recalculator rewrites the cached ThreadStats row for a thread from the
// live engagement edges. It is the only writer of thread_stats.
type Recalculator struct {
	db      *gorm.DB
	store   *engagement.Store
	gravity float64

	// now is injectable so tests can pin the thread age.
	now func() time.Time
}

// NewRecalculator creates a recalculator with the given gravity exponent.
func NewRecalculator(db *gorm.DB, store *engagement.Store, gravity float64) *Recalculator {
	return &Recalculator{
		db:      db,
		store:   store,
		gravity: gravity,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (r *Recalculator) SetNowFunc(now func() time.Time) {
	r.now = now
}

// Score computes the time-decayed popularity score:
//
//	score = engagement / (ageHours + 2)^gravity
//
// The +2 offset keeps brand-new threads from dividing by near-zero and
// bounds early-life growth. Replaying the same inputs always yields the same
// score.
func (r *Recalculator) Score(engagementCount int64, ageHours float64) float64 {
	if engagementCount <= 0 {
		return 0
	}
	return float64(engagementCount) / math.Pow(ageHours+2, r.gravity)
}

// Recalculate refreshes the stats row for one thread.
//
// A missing or deleted thread is a silent no-op: recalculations are
// scheduled asynchronously and routinely race with deletion. Storage
// failures are returned for the caller (the task runner) to log and drop;
// the next engagement event on the thread re-triggers the computation.
func (r *Recalculator) Recalculate(ctx context.Context, threadID string) error {
	db := r.db.WithContext(ctx)

	var thread models.Thread
	err := db.Select("id", "deleted", "created_at").
		Where("id = ?", threadID).
		First(&thread).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	if thread.Deleted {
		return nil
	}

	likes, err := r.store.CountLikes(ctx, threadID)
	if err != nil {
		return err
	}
	reposts, err := r.store.CountReposts(ctx, threadID)
	if err != nil {
		return err
	}

	ageHours := r.now().UTC().Sub(thread.CreatedAt.UTC()).Hours()
	score := r.Score(likes+reposts, ageHours)

	stats := models.ThreadStats{
		ThreadID:    threadID,
		LikeCount:   likes,
		RepostCount: reposts,
		Score:       score,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"like_count", "repost_count", "score", "updated_at"}),
	}).Create(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert stats for thread %s: %w", threadID, err)
	}
	return nil
}

// RecalculateAll replays the score computation over every live thread, in
// id order. Used by the admin rescore command after a gravity change.
func (r *Recalculator) RecalculateAll(ctx context.Context) (int, error) {
	const batchSize = 500

	var ids []string
	processed := 0
	cursor := ""

	for {
		q := r.db.WithContext(ctx).
			Model(&models.Thread{}).
			Where("deleted = ?", false).
			Order("id").
			Limit(batchSize)
		if cursor != "" {
			q = q.Where("id > ?", cursor)
		}
		if err := q.Pluck("id", &ids).Error; err != nil {
			return processed, fmt.Errorf("failed to list threads: %w", err)
		}
		if len(ids) == 0 {
			return processed, nil
		}

		for _, id := range ids {
			if err := r.Recalculate(ctx, id); err != nil {
				return processed, err
			}
			processed++
		}
		cursor = ids[len(ids)-1]
		ids = ids[:0]
	}
}
