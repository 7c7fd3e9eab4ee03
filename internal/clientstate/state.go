package clientstate

import (
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

type ChatType string

const (
	ChatContact ChatType = "contact"
	ChatChannel ChatType = "channel"
)

// Conversation selects a chat: the counterpart user for direct chats, the
// channel for group ones.
type Conversation struct {
	Type ChatType
	ID   string
}

// Key returns the conversation key this selection routes on.
func (c Conversation) Key(selfID string) string {
	if c.Type == ChatChannel {
		return models.ChannelKey(c.ID)
	}
	return models.DirectKey(selfID, c.ID)
}

// State is the session-scoped client view: the active conversation and its
// messages, the two most-recently-active lists, and transient transfer
// progress. It is only ever mutated through Apply.
type State struct {
	SelfID string

	Selected *Conversation
	Messages []*models.Message

	Contacts []*models.Contact
	Channels []*models.Channel

	IsUploading      bool
	IsDownloading    bool
	UploadProgress   float64
	DownloadProgress float64
}

func NewState(selfID string) State {
	return State{SelfID: selfID}
}

type Event interface{ isEvent() }

// SelectConversation switches the active chat. The previous conversation's
// messages are cleared so they cannot leak into the new view; the caller
// follows up with a history fetch.
type SelectConversation struct{ Conv Conversation }

// CloseChat deselects the active conversation.
type CloseChat struct{}

// HistoryLoaded carries a history fetch response together with the
// conversation it was requested for. It is discarded unless that
// conversation is still the selected one at apply time.
type HistoryLoaded struct {
	Conv     Conversation
	Messages []*models.Message
}

// MessageReceived is a pushed direct message (a peer's send or the echo of
// our own).
type MessageReceived struct{ Message *models.Message }

// ChannelMessageReceived is a pushed channel message.
type ChannelMessageReceived struct{ Message *models.Message }

// ContactsLoaded and ChannelsLoaded hydrate the lists from server query
// results at session start.
type ContactsLoaded struct{ Contacts []*models.Contact }
type ChannelsLoaded struct{ Channels []*models.Channel }

// ChannelCreated puts a newly created channel at the front of the list.
type ChannelCreated struct{ Channel *models.Channel }

type UploadStarted struct{}
type UploadProgressed struct{ Fraction float64 }
type UploadFinished struct{}
type UploadFailed struct{}

type DownloadStarted struct{}
type DownloadProgressed struct{ Fraction float64 }
type DownloadFinished struct{}
type DownloadFailed struct{}

func (SelectConversation) isEvent()     {}
func (CloseChat) isEvent()              {}
func (HistoryLoaded) isEvent()          {}
func (MessageReceived) isEvent()        {}
func (ChannelMessageReceived) isEvent() {}
func (ContactsLoaded) isEvent()         {}
func (ChannelsLoaded) isEvent()         {}
func (ChannelCreated) isEvent()         {}
func (UploadStarted) isEvent()          {}
func (UploadProgressed) isEvent()       {}
func (UploadFinished) isEvent()         {}
func (UploadFailed) isEvent()           {}
func (DownloadStarted) isEvent()        {}
func (DownloadProgressed) isEvent()     {}
func (DownloadFinished) isEvent()       {}
func (DownloadFailed) isEvent()         {}

// Apply is the state transition function. Events must be applied in arrival
// order; the Session serializes them.
func Apply(s State, ev Event) State {
	switch e := ev.(type) {
	case SelectConversation:
		if s.Selected != nil && *s.Selected == e.Conv {
			return s
		}
		conv := e.Conv
		s.Selected = &conv
		s.Messages = nil

	case CloseChat:
		s.Selected = nil
		s.Messages = nil

	case HistoryLoaded:
		if s.Selected == nil || s.Selected.Key(s.SelfID) != e.Conv.Key(s.SelfID) {
			return s
		}
		s.Messages = append([]*models.Message(nil), e.Messages...)

	case MessageReceived:
		if e.Message == nil {
			return s
		}
		if s.Selected != nil && s.Selected.Type == ChatContact &&
			s.Selected.Key(s.SelfID) == e.Message.ConversationKey() {
			s.Messages = append(s.Messages, e.Message)
		}
		s.Contacts = bumpContact(s.Contacts, e.Message, s.SelfID)

	case ChannelMessageReceived:
		if e.Message == nil {
			return s
		}
		if s.Selected != nil && s.Selected.Type == ChatChannel &&
			s.Selected.ID == e.Message.ChannelID {
			s.Messages = append(s.Messages, e.Message)
		}
		s.Channels = bumpChannel(s.Channels, e.Message.ChannelID, e.Message)

	case ContactsLoaded:
		s.Contacts = append([]*models.Contact(nil), e.Contacts...)

	case ChannelsLoaded:
		s.Channels = append([]*models.Channel(nil), e.Channels...)

	case ChannelCreated:
		s.Channels = append([]*models.Channel{e.Channel}, s.Channels...)

	case UploadStarted:
		s.IsUploading = true
		s.UploadProgress = 0
	case UploadProgressed:
		s.UploadProgress = e.Fraction
	case UploadFinished:
		s.IsUploading = false
		s.UploadProgress = 0
	case UploadFailed:
		s.IsUploading = false
		s.UploadProgress = 0

	case DownloadStarted:
		s.IsDownloading = true
		s.DownloadProgress = 0
	case DownloadProgressed:
		s.DownloadProgress = e.Fraction
	case DownloadFinished:
		s.IsDownloading = false
		s.DownloadProgress = 0
	case DownloadFailed:
		s.IsDownloading = false
		s.DownloadProgress = 0
	}
	return s
}

// bumpContact moves the message's counterpart to the front of the DM list,
// inserting it if previously unknown. No duplicates: an existing entry is
// reordered, not copied.
func bumpContact(contacts []*models.Contact, m *models.Message, selfID string) []*models.Contact {
	otherID := m.Counterpart(selfID)
	if otherID == "" {
		return contacts
	}
	out := make([]*models.Contact, 0, len(contacts)+1)
	var found *models.Contact
	for _, c := range contacts {
		if c.ID == otherID {
			found = c
			continue
		}
		out = append(out, c)
	}
	if found == nil {
		found = &models.Contact{ID: otherID}
	}
	bumped := *found
	bumped.LastMessageTime = m.Timestamp
	return append([]*models.Contact{&bumped}, out...)
}

// bumpChannel reorders a known channel to the front. Unknown channels are
// left to the next list hydration; a push carries no channel profile to
// insert from.
func bumpChannel(channels []*models.Channel, channelID string, m *models.Message) []*models.Channel {
	idx := -1
	for i, ch := range channels {
		if ch.ID == channelID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return channels
	}
	bumped := *channels[idx]
	bumped.UpdatedAt = m.Timestamp
	out := make([]*models.Channel, 0, len(channels))
	out = append(out, &bumped)
	out = append(out, channels[:idx]...)
	return append(out, channels[idx+1:]...)
}
