package history

import (
	"context"

	"github.com/fathima-sithara/realtime-chat/internal/models"
	"github.com/fathima-sithara/realtime-chat/internal/store"
)

// Service hydrates a conversation on chat-open. It always returns the full
// ordered history; given expected conversation sizes, a single fetch per
// open is simpler than incremental paging.
type Service struct {
	store store.Gateway
}

func NewService(st store.Gateway) *Service {
	return &Service{store: st}
}

func (s *Service) DirectHistory(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	return s.store.MessagesBetween(ctx, userA, userB)
}

func (s *Service) ChannelHistory(ctx context.Context, channelID string) ([]*models.Message, error) {
	return s.store.MessagesIn(ctx, channelID)
}
