package handlers

import (
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/feed"
	"github.com/strandhq/strand/backend/internal/threads"
)

// Handlers contains all HTTP handlers for the API. One instance is built at
// process start and shared by every request.
type Handlers struct {
	threads    *threads.Service
	feed       *feed.Engine
	engagement *engagement.Store
}

// NewHandlers creates a new handlers instance
func NewHandlers(threadService *threads.Service, feedEngine *feed.Engine, engagementStore *engagement.Store) *Handlers {
	return &Handlers{
		threads:    threadService,
		feed:       feedEngine,
		engagement: engagementStore,
	}
}
