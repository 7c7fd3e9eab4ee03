package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

func seedUsers(t *testing.T, s *MemoryStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := s.CreateUser(context.Background(), &models.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
}

func textDraft(sender, recipient, content string) MessageDraft {
	return MessageDraft{
		SenderID:    sender,
		RecipientID: recipient,
		MessageType: models.MessageTypeText,
		Content:     content,
	}
}

func TestDirectMessageOrdering(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		sender, recipient := "alice", "bob"
		if i%2 == 1 {
			sender, recipient = recipient, sender
		}
		_, err := s.CreateDirectMessage(ctx, textDraft(sender, recipient, "msg"))
		require.NoError(t, err)
	}

	msgs, err := s.MessagesBetween(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 50)
	for i := 1; i < len(msgs); i++ {
		require.True(t, msgs[i].Timestamp.After(msgs[i-1].Timestamp),
			"timestamps must be strictly increasing in store order")
	}
}

func TestDirectMessageUnknownParties(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "alice")
	ctx := context.Background()

	_, err := s.CreateDirectMessage(ctx, textDraft("alice", "ghost", "hi"))
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.CreateDirectMessage(ctx, textDraft("ghost", "alice", "hi"))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDraftValidation(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	_, err := s.CreateDirectMessage(ctx, MessageDraft{
		SenderID:    "alice",
		RecipientID: "bob",
		MessageType: models.MessageTypeText,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateDirectMessage(ctx, MessageDraft{
		SenderID:    "alice",
		RecipientID: "bob",
		MessageType: models.MessageTypeFile,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateDirectMessage(ctx, MessageDraft{
		SenderID:    "alice",
		RecipientID: "bob",
		MessageType: "sticker",
		Content:     "x",
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestChannelMessageMembership(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "x", "y", "z")
	ctx := context.Background()

	ch, err := s.CreateChannel(ctx, "team", "x", []string{"y"})
	require.NoError(t, err)

	_, err = s.CreateChannelMessage(ctx, MessageDraft{
		SenderID:    "z",
		ChannelID:   ch.ID,
		MessageType: models.MessageTypeText,
		Content:     "hello",
	})
	require.ErrorIs(t, err, apperr.ErrNotAuthorized)

	// The admin is implicitly a member.
	_, err = s.CreateChannelMessage(ctx, MessageDraft{
		SenderID:    "x",
		ChannelID:   ch.ID,
		MessageType: models.MessageTypeText,
		Content:     "hello",
	})
	require.NoError(t, err)

	msgs, err := s.MessagesIn(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestChannelMembersUnique(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "x", "y")
	ctx := context.Background()

	ch, err := s.CreateChannel(ctx, "team", "x", []string{"y", "y", "x"})
	require.NoError(t, err)
	require.Equal(t, []string{"y"}, ch.Members, "admin and duplicates must not appear in the member list")
}

func TestDirectContactsRecency(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "me", "a", "b")
	ctx := context.Background()

	_, err := s.CreateDirectMessage(ctx, textDraft("me", "a", "1"))
	require.NoError(t, err)
	_, err = s.CreateDirectMessage(ctx, textDraft("b", "me", "2"))
	require.NoError(t, err)

	contacts, err := s.DirectContacts(ctx, "me")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	require.Equal(t, "b", contacts[0].ID)
	require.Equal(t, "a", contacts[1].ID)

	// A new message from a flips the order.
	_, err = s.CreateDirectMessage(ctx, textDraft("a", "me", "3"))
	require.NoError(t, err)
	contacts, err = s.DirectContacts(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, "a", contacts[0].ID)
}

func TestChannelsForUserRecency(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "x", "y")
	ctx := context.Background()

	first, err := s.CreateChannel(ctx, "first", "x", []string{"y"})
	require.NoError(t, err)
	second, err := s.CreateChannel(ctx, "second", "x", []string{"y"})
	require.NoError(t, err)

	channels, err := s.ChannelsForUser(ctx, "y")
	require.NoError(t, err)
	require.Equal(t, second.ID, channels[0].ID)

	// Posting into the older channel bumps it to the front.
	_, err = s.CreateChannelMessage(ctx, MessageDraft{
		SenderID:    "y",
		ChannelID:   first.ID,
		MessageType: models.MessageTypeText,
		Content:     "bump",
	})
	require.NoError(t, err)

	channels, err = s.ChannelsForUser(ctx, "y")
	require.NoError(t, err)
	require.Equal(t, first.ID, channels[0].ID)
}

func TestUpdateProfileOwnerFields(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s, "me")
	ctx := context.Background()

	u, err := s.UpdateProfile(ctx, &models.User{ID: "me", FirstName: "Ada", LastName: "L", Color: 2})
	require.NoError(t, err)
	require.Equal(t, "Ada", u.FirstName)
	require.Equal(t, 2, u.Color)

	_, err = s.UpdateProfile(ctx, &models.User{ID: "ghost"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
