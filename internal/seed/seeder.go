package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/models"
	"github.com/strandhq/strand/backend/internal/ranking"
	"github.com/strandhq/strand/backend/internal/threads"
	"gorm.io/gorm"
)

// Seeder fills a development database with fake users, threads, follows and
// engagement, then computes initial ranking scores.
type Seeder struct {
	db      *gorm.DB
	service *threads.Service
	store   *engagement.Store
	recalc  *ranking.Recalculator
}

// New creates a seeder.
func New(db *gorm.DB, service *threads.Service, store *engagement.Store, recalc *ranking.Recalculator) *Seeder {
	return &Seeder{db: db, service: service, store: store, recalc: recalc}
}

// Run seeds the given number of users with a few threads each, random
// follow and engagement edges, and fresh scores.
func (s *Seeder) Run(ctx context.Context, userCount, threadsPerUser int) error {
	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		user := models.User{
			Username:    fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName: gofakeit.Name(),
			AvatarURL:   gofakeit.ImageURL(200, 200),
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	var threadIDs []string
	for _, user := range users {
		for i := 0; i < threadsPerUser; i++ {
			input := threads.CreateInput{
				Text:     gofakeit.Sentence(12),
				HashTags: []string{gofakeit.BuzzWord(), gofakeit.HackerNoun()},
			}
			if rand.Intn(3) == 0 && len(users) > 1 {
				input.Mentions = []string{users[rand.Intn(len(users))].Username}
			}
			id, err := s.service.Create(ctx, user.ID, input)
			if err != nil {
				return err
			}
			threadIDs = append(threadIDs, id)
		}
	}

	// Random follow graph
	for _, follower := range users {
		for _, followee := range users {
			if follower.ID == followee.ID || rand.Intn(4) != 0 {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
			if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
				return fmt.Errorf("failed to create follow: %w", err)
			}
		}
	}

	// Random engagement; toggles also exercise the counting path
	for _, threadID := range threadIDs {
		for _, user := range users {
			if rand.Intn(3) == 0 {
				if _, err := s.store.ToggleLike(ctx, user.ID, threadID); err != nil {
					return err
				}
			}
			if rand.Intn(6) == 0 {
				if _, err := s.store.ToggleRepost(ctx, user.ID, threadID); err != nil {
					return err
				}
			}
			if rand.Intn(8) == 0 {
				if _, err := s.store.ToggleBookmark(ctx, user.ID, threadID); err != nil {
					return err
				}
			}
		}
	}

	_, err := s.recalc.RecalculateAll(ctx)
	return err
}
