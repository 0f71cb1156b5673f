package engagement

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/models"
	"gorm.io/gorm"
)

// Kind identifies one of the three engagement relations.
type Kind string

const (
	KindLike     Kind = "like"
	KindBookmark Kind = "bookmark"
	KindRepost   Kind = "repost"
)

// ToggleResult is the synchronous answer to a toggle: the caller's new state
// and the live edge count for immediate UI feedback.
type ToggleResult struct {
	Count  int64
	Active bool
}

// Store owns the three engagement edge tables and their counts.
//
// Toggles are check-then-act, backstopped by the composite unique index on
// each edge table: when two toggles race, the loser's insert fails with a
// duplicate-key error and is resolved as "already engaged", so the table
// never holds two edges for one (thread, user) pair.
type Store struct {
	db *gorm.DB

	// onRankingChange is invoked after a successful like or repost toggle.
	// Bookmarks do not influence ranking.
	onRankingChange func(threadID string)
}

// NewStore creates an engagement store on the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SetRankingCallback registers the hook that schedules a score
// recalculation. Wired in main to the task runner; a nil callback is fine
// (tests, seeding).
func (s *Store) SetRankingCallback(fn func(threadID string)) {
	s.onRankingChange = fn
}

// ToggleLike likes the thread for the user, or removes the like if present.
func (s *Store) ToggleLike(ctx context.Context, userID, threadID string) (*ToggleResult, error) {
	return s.toggle(ctx, KindLike, userID, threadID)
}

// ToggleBookmark bookmarks the thread for the user, or removes the bookmark.
func (s *Store) ToggleBookmark(ctx context.Context, userID, threadID string) (*ToggleResult, error) {
	return s.toggle(ctx, KindBookmark, userID, threadID)
}

// ToggleRepost reposts the thread for the user, or removes the repost.
func (s *Store) ToggleRepost(ctx context.Context, userID, threadID string) (*ToggleResult, error) {
	return s.toggle(ctx, KindRepost, userID, threadID)
}

func (s *Store) toggle(ctx context.Context, kind Kind, userID, threadID string) (*ToggleResult, error) {
	db := s.db.WithContext(ctx)

	var thread struct {
		ID      string
		Deleted bool
	}
	err := db.Model(&models.Thread{}).
		Select("id", "deleted").
		Where("id = ?", threadID).
		First(&thread).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("thread")
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	// A soft-deleted thread is gone as far as engagement is concerned
	if thread.Deleted {
		return nil, errors.NotFound("thread")
	}

	engaged, err := s.hasEdge(db, kind, userID, threadID)
	if err != nil {
		return nil, err
	}

	active := !engaged
	if engaged {
		if err := s.deleteEdge(db, kind, userID, threadID); err != nil {
			return nil, err
		}
	} else {
		err := s.createEdge(db, kind, userID, threadID)
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with an identical toggle; the edge exists, which is
			// the state this call wanted. No-op.
			active = true
		} else if err != nil {
			return nil, err
		}
	}

	count, err := s.count(ctx, kind, threadID)
	if err != nil {
		return nil, err
	}

	if kind != KindBookmark && s.onRankingChange != nil {
		s.onRankingChange(threadID)
	}

	return &ToggleResult{Count: count, Active: active}, nil
}

// CountLikes returns the live like count for a thread.
func (s *Store) CountLikes(ctx context.Context, threadID string) (int64, error) {
	return s.count(ctx, KindLike, threadID)
}

// CountBookmarks returns the live bookmark count for a thread.
func (s *Store) CountBookmarks(ctx context.Context, threadID string) (int64, error) {
	return s.count(ctx, KindBookmark, threadID)
}

// CountReposts returns the live repost count for a thread.
func (s *Store) CountReposts(ctx context.Context, threadID string) (int64, error) {
	return s.count(ctx, KindRepost, threadID)
}

func (s *Store) hasEdge(db *gorm.DB, kind Kind, userID, threadID string) (bool, error) {
	var n int64
	err := db.Model(s.model(kind)).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s edge: %w", kind, err)
	}
	return n > 0, nil
}

func (s *Store) createEdge(db *gorm.DB, kind Kind, userID, threadID string) error {
	var err error
	switch kind {
	case KindLike:
		err = db.Create(&models.ThreadLike{ThreadID: threadID, UserID: userID}).Error
	case KindBookmark:
		err = db.Create(&models.ThreadBookmark{ThreadID: threadID, UserID: userID}).Error
	case KindRepost:
		err = db.Create(&models.ThreadRepost{ThreadID: threadID, UserID: userID}).Error
	}
	if err != nil && !stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to create %s edge: %w", kind, err)
	}
	return err
}

func (s *Store) deleteEdge(db *gorm.DB, kind Kind, userID, threadID string) error {
	err := db.Where("thread_id = ? AND user_id = ?", threadID, userID).
		Delete(s.model(kind)).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s edge: %w", kind, err)
	}
	return nil
}

func (s *Store) count(ctx context.Context, kind Kind, threadID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(s.model(kind)).
		Where("thread_id = ?", threadID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s edges: %w", kind, err)
	}
	return n, nil
}

func (s *Store) model(kind Kind) interface{} {
	switch kind {
	case KindLike:
		return &models.ThreadLike{}
	case KindBookmark:
		return &models.ThreadBookmark{}
	default:
		return &models.ThreadRepost{}
	}
}
