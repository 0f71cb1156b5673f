package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhoCanComment controls who may reply to a thread.
type WhoCanComment string

const (
	CommentsEveryone  WhoCanComment = "everyone"
	CommentsFollowed  WhoCanComment = "followed"
	CommentsMentioned WhoCanComment = "mentioned"
)

// Thread is a single posted content unit.
//
// Threads are never physically deleted: Deleted marks them removed and every
// feed query filters on it. The primary key is a UUIDv7, so ids sort by
// creation time and double as the pagination cursor.
type Thread struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index:idx_threads_user_created" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Content
	Text     string `gorm:"type:text;not null" json:"text"`
	BodyJSON string `gorm:"type:text" json:"body_json,omitempty"` // opaque rich-editor payload

	// Visibility settings
	WhoCanLeaveComments WhoCanComment `gorm:"type:varchar(20);default:everyone" json:"who_can_leave_comments"`
	HiddenCounts        bool          `gorm:"default:false" json:"hidden_counts"`

	// Soft delete flag (not gorm.DeletedAt: deleted rows stay queryable for
	// stats reconciliation and the flag is part of the public contract)
	Deleted bool `gorm:"default:false;index" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_threads_user_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadStats caches the ranking inputs and time-decayed score per thread.
// Written only by the ranking recalculator; feed queries read it.
type ThreadStats struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID    string  `gorm:"uniqueIndex;not null" json:"thread_id"`
	LikeCount   int64   `gorm:"default:0" json:"like_count"`
	RepostCount int64   `gorm:"default:0" json:"repost_count"`
	Score       float64 `gorm:"default:0;index" json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ThreadStats) TableName() string {
	return "thread_stats"
}

// Tag is a unique hashtag name.
type Tag struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadTag links threads to tags (many-to-many).
type ThreadTag struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index;uniqueIndex:idx_thread_tags_pair" json:"thread_id"`
	TagID    string `gorm:"not null;index;uniqueIndex:idx_thread_tags_pair" json:"tag_id"`
	Tag      Tag    `gorm:"foreignKey:TagID" json:"tag,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ThreadMention links threads to the users mentioned in them.
type ThreadMention struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index;uniqueIndex:idx_thread_mentions_pair" json:"thread_id"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_thread_mentions_pair" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

func (s *ThreadStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

func (tt *ThreadTag) BeforeCreate(tx *gorm.DB) error {
	if tt.ID == "" {
		tt.ID = NewID()
	}
	return nil
}

func (tm *ThreadMention) BeforeCreate(tx *gorm.DB) error {
	if tm.ID == "" {
		tm.ID = NewID()
	}
	return nil
}

// NewID generates a UUIDv7. Feed cursors compare ids with "<", which only
// works because v7 ids are time-ordered.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4
		return uuid.New().String()
	}
	return id.String()
}
