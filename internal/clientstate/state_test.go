package clientstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-chat/internal/models"
)

func direct(id, sender, recipient string, ts time.Time) *models.Message {
	return &models.Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		MessageType: models.MessageTypeText,
		Content:     "hi",
		Timestamp:   ts,
	}
}

func channelMsg(id, sender, channelID string, ts time.Time) *models.Message {
	return &models.Message{
		ID:          id,
		SenderID:    sender,
		ChannelID:   channelID,
		MessageType: models.MessageTypeText,
		Content:     "hi",
		Timestamp:   ts,
	}
}

func TestSelectClearsPreviousMessages(t *testing.T) {
	s := NewState("me")
	s = Apply(s, SelectConversation{Conv: Conversation{Type: ChatContact, ID: "alice"}})
	s = Apply(s, MessageReceived{Message: direct("m1", "alice", "me", time.Now())})
	require.Len(t, s.Messages, 1)

	s = Apply(s, SelectConversation{Conv: Conversation{Type: ChatContact, ID: "bob"}})
	require.Empty(t, s.Messages, "switching conversations must not leak old messages")

	// Re-selecting the same conversation keeps the sequence.
	s = Apply(s, MessageReceived{Message: direct("m2", "bob", "me", time.Now())})
	s = Apply(s, SelectConversation{Conv: Conversation{Type: ChatContact, ID: "bob"}})
	require.Len(t, s.Messages, 1)
}

func TestPushedMessageAppendsOnlyToActiveConversation(t *testing.T) {
	s := NewState("me")
	s = Apply(s, SelectConversation{Conv: Conversation{Type: ChatContact, ID: "alice"}})

	s = Apply(s, MessageReceived{Message: direct("m1", "bob", "me", time.Now())})
	require.Empty(t, s.Messages, "message for another conversation must not appear")
	require.Len(t, s.Contacts, 1, "but the contact list still reorders")
	require.Equal(t, "bob", s.Contacts[0].ID)

	s = Apply(s, MessageReceived{Message: direct("m2", "alice", "me", time.Now())})
	require.Len(t, s.Messages, 1)
}

func TestContactMRUInsertAndReorderWithoutDuplicates(t *testing.T) {
	s := NewState("me")
	s = Apply(s, ContactsLoaded{Contacts: []*models.Contact{
		{ID: "a"}, {ID: "b"},
	}})

	// Unknown sender is inserted at the front.
	s = Apply(s, MessageReceived{Message: direct("m1", "carol", "me", time.Now())})
	require.Equal(t, []string{"carol", "a", "b"}, contactIDs(s.Contacts))

	// A second message from the same sender reorders, never duplicates.
	s = Apply(s, MessageReceived{Message: direct("m2", "b", "me", time.Now())})
	require.Equal(t, []string{"b", "carol", "a"}, contactIDs(s.Contacts))
	s = Apply(s, MessageReceived{Message: direct("m3", "b", "me", time.Now())})
	require.Equal(t, []string{"b", "carol", "a"}, contactIDs(s.Contacts))
}

func TestOutboundEchoReordersOwnList(t *testing.T) {
	s := NewState("me")
	s = Apply(s, ContactsLoaded{Contacts: []*models.Contact{{ID: "a"}, {ID: "b"}}})

	// The echo of our own send names us as sender; the counterpart is the
	// recipient.
	s = Apply(s, MessageReceived{Message: direct("m1", "me", "b", time.Now())})
	require.Equal(t, []string{"b", "a"}, contactIDs(s.Contacts))
}

func TestChannelMRUReordersKnownChannelsOnly(t *testing.T) {
	s := NewState("me")
	s = Apply(s, ChannelsLoaded{Channels: []*models.Channel{
		{ID: "c1"}, {ID: "c2"},
	}})

	s = Apply(s, ChannelMessageReceived{Message: channelMsg("m1", "x", "c2", time.Now())})
	require.Equal(t, []string{"c2", "c1"}, channelIDs(s.Channels))

	// A push for an unhydrated channel leaves the list untouched.
	s = Apply(s, ChannelMessageReceived{Message: channelMsg("m2", "x", "c9", time.Now())})
	require.Equal(t, []string{"c2", "c1"}, channelIDs(s.Channels))
}

func TestStaleHistoryDiscardedAfterReselect(t *testing.T) {
	s := NewState("me")
	convA := Conversation{Type: ChatContact, ID: "alice"}
	convB := Conversation{Type: ChatContact, ID: "bob"}

	s = Apply(s, SelectConversation{Conv: convA})
	s = Apply(s, SelectConversation{Conv: convB})

	// A's fetch resolves late; it must not populate B's view.
	s = Apply(s, HistoryLoaded{Conv: convA, Messages: []*models.Message{
		direct("old", "alice", "me", time.Now()),
	}})
	require.Empty(t, s.Messages)

	s = Apply(s, HistoryLoaded{Conv: convB, Messages: []*models.Message{
		direct("fresh", "bob", "me", time.Now()),
	}})
	require.Len(t, s.Messages, 1)
	require.Equal(t, "fresh", s.Messages[0].ID)
}

func TestHistoryAfterCloseDiscarded(t *testing.T) {
	s := NewState("me")
	conv := Conversation{Type: ChatChannel, ID: "c1"}
	s = Apply(s, SelectConversation{Conv: conv})
	s = Apply(s, CloseChat{})
	s = Apply(s, HistoryLoaded{Conv: conv, Messages: []*models.Message{
		channelMsg("m1", "x", "c1", time.Now()),
	}})
	require.Nil(t, s.Selected)
	require.Empty(t, s.Messages)
}

func TestTransferProgressLifecycle(t *testing.T) {
	s := NewState("me")
	s = Apply(s, UploadStarted{})
	s = Apply(s, UploadProgressed{Fraction: 0.6})
	require.True(t, s.IsUploading)
	require.InDelta(t, 0.6, s.UploadProgress, 1e-9)

	s = Apply(s, UploadFailed{})
	require.False(t, s.IsUploading)
	require.Zero(t, s.UploadProgress, "failure resets progress")

	s = Apply(s, DownloadStarted{})
	s = Apply(s, DownloadProgressed{Fraction: 1})
	s = Apply(s, DownloadFinished{})
	require.False(t, s.IsDownloading)
	require.Zero(t, s.DownloadProgress)
}

func contactIDs(contacts []*models.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.ID
	}
	return out
}

func channelIDs(channels []*models.Channel) []string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = ch.ID
	}
	return out
}
