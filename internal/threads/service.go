package threads

import (
	"context"
	stderrors "errors"
	"fmt"
	"unicode/utf8"

	"github.com/strandhq/strand/backend/internal/errors"
	"github.com/strandhq/strand/backend/internal/models"
	"gorm.io/gorm"
)

// MaxTextLength is the thread body limit in runes.
const MaxTextLength = 500

// CreateInput carries a new thread's content. Mentions are usernames and
// HashTags are tag names; both are resolved here.
type CreateInput struct {
	Text     string   `json:"text" binding:"required"`
	BodyJSON string   `json:"body_json"`
	Mentions []string `json:"mentions"`
	HashTags []string `json:"hash_tags"`
}

// UpdateInput carries a partial thread update. Nil pointer fields and nil
// slices mean "leave untouched"; non-nil slices are the requested final
// association set.
type UpdateInput struct {
	Text                *string               `json:"text"`
	BodyJSON            *string               `json:"body_json"`
	Mentions            []string              `json:"mentions"`
	HashTags            []string              `json:"hash_tags"`
	WhoCanLeaveComments *models.WhoCanComment `json:"who_can_leave_comments"`
	HiddenCounts        *bool                 `json:"hidden_counts"`
}

// Service handles thread create/update/delete, including reconciliation of
// tag and mention associations.
//
// Resolution is deliberately lenient: a mention of an unknown username is
// dropped, never an error. Tags that don't exist yet are created on first
// use, first writer wins on the unique name index.
type Service struct {
	db *gorm.DB
}

// NewService creates a thread mutation service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create stores a new thread with its zero-value stats row and resolved
// tag/mention links, all in one transaction. Returns the new thread id.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (string, error) {
	if err := validateText(in.Text); err != nil {
		return "", err
	}

	var threadID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tagIDs, err := resolveOrCreateTags(tx, in.HashTags)
		if err != nil {
			return err
		}
		mentionIDs, err := resolveMentions(tx, in.Mentions)
		if err != nil {
			return err
		}

		thread := models.Thread{
			UserID:              ownerID,
			Text:                in.Text,
			BodyJSON:            in.BodyJSON,
			WhoCanLeaveComments: models.CommentsEveryone,
		}
		if err := tx.Create(&thread).Error; err != nil {
			return fmt.Errorf("failed to create thread: %w", err)
		}
		threadID = thread.ID

		// Stats start at zero so the recommendations join always has a row
		if err := tx.Create(&models.ThreadStats{ThreadID: thread.ID}).Error; err != nil {
			return fmt.Errorf("failed to create thread stats: %w", err)
		}

		for _, tagID := range tagIDs {
			link := models.ThreadTag{ThreadID: thread.ID, TagID: tagID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link tag: %w", err)
			}
		}
		for _, userID := range mentionIDs {
			link := models.ThreadMention{ThreadID: thread.ID, UserID: userID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link mention: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return threadID, nil
}

// Update applies a field delta to an owned thread. Only changed scalar
// fields are written; tag and mention sets are reconciled by set difference
// against the current associations.
func (s *Service) Update(ctx context.Context, ownerID, threadID string, in UpdateInput) error {
	if in.Text != nil {
		if err := validateText(*in.Text); err != nil {
			return err
		}
	}

	db := s.db.WithContext(ctx)

	var thread models.Thread
	err := db.Where("id = ? AND user_id = ?", threadID, ownerID).First(&thread).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("thread")
	}
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	if thread.Deleted {
		return errors.BadRequest("thread deleted")
	}

	currentTags, err := s.currentTagNames(db, threadID)
	if err != nil {
		return err
	}
	currentMentions, err := s.currentMentionUsernames(db, threadID)
	if err != nil {
		return err
	}

	d := buildDelta(&thread, currentTags, currentMentions, in)
	if d.empty() {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(d.updates) > 0 {
			err := tx.Model(&models.Thread{}).
				Where("id = ?", threadID).
				Updates(d.updates).Error
			if err != nil {
				return fmt.Errorf("failed to update thread: %w", err)
			}
		}

		if len(d.removeTags) > 0 {
			var tagIDs []string
			if err := tx.Model(&models.Tag{}).Where("name IN ?", d.removeTags).Pluck("id", &tagIDs).Error; err != nil {
				return fmt.Errorf("failed to resolve tags: %w", err)
			}
			if len(tagIDs) > 0 {
				err := tx.Where("thread_id = ? AND tag_id IN ?", threadID, tagIDs).
					Delete(&models.ThreadTag{}).Error
				if err != nil {
					return fmt.Errorf("failed to detach tags: %w", err)
				}
			}
		}
		if len(d.addTags) > 0 {
			tagIDs, err := resolveOrCreateTags(tx, d.addTags)
			if err != nil {
				return err
			}
			for _, tagID := range tagIDs {
				link := models.ThreadTag{ThreadID: threadID, TagID: tagID}
				if err := tx.Create(&link).Error; err != nil && !stderrors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("failed to attach tag: %w", err)
				}
			}
		}

		if len(d.removeMentions) > 0 {
			var userIDs []string
			if err := tx.Model(&models.User{}).Where("username IN ?", d.removeMentions).Pluck("id", &userIDs).Error; err != nil {
				return fmt.Errorf("failed to resolve mentions: %w", err)
			}
			if len(userIDs) > 0 {
				err := tx.Where("thread_id = ? AND user_id IN ?", threadID, userIDs).
					Delete(&models.ThreadMention{}).Error
				if err != nil {
					return fmt.Errorf("failed to detach mentions: %w", err)
				}
			}
		}
		if len(d.addMentions) > 0 {
			userIDs, err := resolveMentions(tx, d.addMentions)
			if err != nil {
				return err
			}
			for _, userID := range userIDs {
				link := models.ThreadMention{ThreadID: threadID, UserID: userID}
				if err := tx.Create(&link).Error; err != nil && !stderrors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("failed to attach mention: %w", err)
				}
			}
		}
		return nil
	})
}

// Delete flips the soft-delete flag on an owned, live thread. Edges and
// stats are left in place; every feed query filters on the flag, so they
// become unreachable immediately.
func (s *Service) Delete(ctx context.Context, ownerID, threadID string) error {
	db := s.db.WithContext(ctx)

	var thread models.Thread
	err := db.Select("id").
		Where("id = ? AND user_id = ? AND deleted = ?", threadID, ownerID, false).
		First(&thread).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.BadRequest("thread not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}

	err = db.Model(&models.Thread{}).
		Where("id = ?", threadID).
		Update("deleted", true).Error
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

func (s *Service) currentTagNames(db *gorm.DB, threadID string) ([]string, error) {
	var names []string
	err := db.Model(&models.ThreadTag{}).
		Joins("JOIN tags ON tags.id = thread_tags.tag_id").
		Where("thread_tags.thread_id = ?", threadID).
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load current tags: %w", err)
	}
	return names, nil
}

func (s *Service) currentMentionUsernames(db *gorm.DB, threadID string) ([]string, error) {
	var usernames []string
	err := db.Model(&models.ThreadMention{}).
		Joins("JOIN users ON users.id = thread_mentions.user_id").
		Where("thread_mentions.thread_id = ?", threadID).
		Pluck("users.username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load current mentions: %w", err)
	}
	return usernames, nil
}

// resolveOrCreateTags maps tag names to ids, creating missing tags. A lost
// creation race falls back to the winner's row.
func resolveOrCreateTags(tx *gorm.DB, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range dedup(names) {
		var tag models.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			err = tx.Create(&tag).Error
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				err = tx.Where("name = ?", name).First(&tag).Error
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// resolveMentions maps usernames to user ids, silently dropping usernames
// that don't resolve.
func resolveMentions(tx *gorm.DB, usernames []string) ([]string, error) {
	ids := make([]string, 0, len(usernames))
	for _, username := range dedup(usernames) {
		var user models.User
		err := tx.Where("username = ?", username).First(&user).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mention %q: %w", username, err)
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func validateText(text string) error {
	n := utf8.RuneCountInString(text)
	if n < 1 || n > MaxTextLength {
		return errors.ValidationError(fmt.Sprintf("text must be 1-%d characters", MaxTextLength))
	}
	return nil
}

func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
