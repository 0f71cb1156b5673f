package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors an account from the external identity provider. Auth happens
// elsewhere; this row exists for mention resolution, follow edges, and
// display fields on feed items.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Follow records that one user follows another.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followee_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	return nil
}
