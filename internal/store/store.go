package store

import (
	"context"
	"fmt"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// MessageDraft is the client-supplied part of a message. The gateway assigns
// the id and the timestamp; client timestamps are never trusted.
type MessageDraft struct {
	SenderID    string
	RecipientID string
	ChannelID   string
	MessageType string
	Content     string
	FilePath    string
}

// Gateway is the durable store behind the delivery and history paths.
// Implementations must assign per-store monotonic timestamps so that
// history order matches send order even under client clock skew.
type Gateway interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) (*models.User, error)
	SearchUsers(ctx context.Context, selfID, term string) ([]*models.User, error)
	AllUsers(ctx context.Context, selfID string) ([]*models.User, error)

	CreateDirectMessage(ctx context.Context, d MessageDraft) (*models.Message, error)
	CreateChannelMessage(ctx context.Context, d MessageDraft) (*models.Message, error)
	MessagesBetween(ctx context.Context, userA, userB string) ([]*models.Message, error)
	MessagesIn(ctx context.Context, channelID string) ([]*models.Message, error)

	// DirectContacts returns the DM counterparts of userID ordered by the
	// time of the last message exchanged, most recent first.
	DirectContacts(ctx context.Context, userID string) ([]*models.Contact, error)

	CreateChannel(ctx context.Context, name, adminID string, members []string) (*models.Channel, error)
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	ChannelsForUser(ctx context.Context, userID string) ([]*models.Channel, error)
}

func validateDraft(d MessageDraft) error {
	if d.SenderID == "" {
		return fmt.Errorf("%w: sender is required", apperr.ErrValidation)
	}
	switch d.MessageType {
	case models.MessageTypeText:
		if d.Content == "" {
			return fmt.Errorf("%w: content is required for text messages", apperr.ErrValidation)
		}
	case models.MessageTypeFile:
		if d.FilePath == "" {
			return fmt.Errorf("%w: file path is required for file messages", apperr.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown message type %q", apperr.ErrValidation, d.MessageType)
	}
	return nil
}
