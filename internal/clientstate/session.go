package clientstate

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fathima-sithara/realtime-chat/internal/delivery"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// HistoryFetcher is the chat-open read path. history.Service satisfies it.
type HistoryFetcher interface {
	DirectHistory(ctx context.Context, userA, userB string) ([]*models.Message, error)
	ChannelHistory(ctx context.Context, channelID string) ([]*models.Message, error)
}

// Session owns one client's synchronization state. All mutations funnel
// through Dispatch, which applies events strictly in arrival order, so a
// push and a history response can never interleave a partial update.
type Session struct {
	selfID string

	mu      sync.Mutex
	state   State
	fetcher HistoryFetcher
}

func NewSession(selfID string, fetcher HistoryFetcher) *Session {
	return &Session{selfID: selfID, state: NewState(selfID), fetcher: fetcher}
}

func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Apply(s.state, ev)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.state
	cp.Messages = append([]*models.Message(nil), s.state.Messages...)
	cp.Contacts = append([]*models.Contact(nil), s.state.Contacts...)
	cp.Channels = append([]*models.Channel(nil), s.state.Channels...)
	return cp
}

// Select switches the active conversation and triggers its history fetch.
// The fetch response is tagged with the conversation it was issued for;
// Apply discards it if the selection moved on before it arrived.
func (s *Session) Select(ctx context.Context, conv Conversation) error {
	s.Dispatch(SelectConversation{Conv: conv})
	if s.fetcher == nil {
		return nil
	}
	var (
		msgs []*models.Message
		err  error
	)
	switch conv.Type {
	case ChatChannel:
		msgs, err = s.fetcher.ChannelHistory(ctx, conv.ID)
	default:
		// selfID is read from the immutable field: Dispatch reassigns the
		// whole state struct under the mutex, which Select does not hold
		// here.
		msgs, err = s.fetcher.DirectHistory(ctx, s.selfID, conv.ID)
	}
	if err != nil {
		return err
	}
	s.Dispatch(HistoryLoaded{Conv: conv, Messages: msgs})
	return nil
}

// HandlePush decodes a server push frame and feeds it into the state
// machine.
func (s *Session) HandlePush(payload []byte) {
	var env delivery.Envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Message == nil {
		return
	}
	switch env.Event {
	case delivery.EventReceiveMessage:
		s.Dispatch(MessageReceived{Message: env.Message})
	case delivery.EventReceiveChannelMessage:
		s.Dispatch(ChannelMessageReceived{Message: env.Message})
	}
}
