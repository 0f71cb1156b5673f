package models

import (
	"time"

	"gorm.io/gorm"
)

// Engagement edges. Each table holds at most one row per (thread, user); the
// composite unique index is what makes concurrent duplicate toggles safe.
// Edge existence is the source of truth for "has user X engaged with thread
// Y" — ThreadStats counts are a cache, refreshed by the recalculator.

// ThreadLike records one user's like of one thread.
type ThreadLike struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index;uniqueIndex:idx_thread_likes_pair" json:"thread_id"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_thread_likes_pair" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// ThreadBookmark records one user's bookmark of one thread.
type ThreadBookmark struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index;uniqueIndex:idx_thread_bookmarks_pair" json:"thread_id"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_thread_bookmarks_pair" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// ThreadRepost records one user's repost of one thread.
type ThreadRepost struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index;uniqueIndex:idx_thread_reposts_pair" json:"thread_id"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_thread_reposts_pair" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *ThreadLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = NewID()
	}
	return nil
}

func (b *ThreadBookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

func (r *ThreadRepost) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}
