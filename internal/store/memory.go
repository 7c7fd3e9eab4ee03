package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// MemoryStore is a Gateway kept entirely in process memory. It backs tests
// and the store.driver=memory mode.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	channels map[string]*models.Channel
	messages []*models.Message
	lastTS   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		channels: make(map[string]*models.Channel),
	}
}

// nextTimestamp returns a strictly increasing timestamp. Callers hold mu.
func (s *MemoryStore) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = now
	return now
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, u.ID)
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.Image = u.Image
	cur.Color = u.Color
	cp := *cur
	return &cp, nil
}

func (s *MemoryStore) SearchUsers(ctx context.Context, selfID, term string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term = strings.ToLower(term)
	var out []*models.User
	for _, u := range s.users {
		if u.ID == selfID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), term) ||
			strings.Contains(strings.ToLower(u.LastName), term) ||
			strings.Contains(strings.ToLower(u.Email), term) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryStore) AllUsers(ctx context.Context, selfID string) ([]*models.User, error) {
	return s.SearchUsers(ctx, selfID, "")
}

func (s *MemoryStore) CreateDirectMessage(ctx context.Context, d MessageDraft) (*models.Message, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}
	if d.RecipientID == "" {
		return nil, fmt.Errorf("%w: recipient is required", apperr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[d.SenderID]; !ok {
		return nil, fmt.Errorf("%w: sender %s", apperr.ErrNotFound, d.SenderID)
	}
	if _, ok := s.users[d.RecipientID]; !ok {
		return nil, fmt.Errorf("%w: recipient %s", apperr.ErrNotFound, d.RecipientID)
	}
	m := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    d.SenderID,
		RecipientID: d.RecipientID,
		MessageType: d.MessageType,
		Content:     d.Content,
		FilePath:    d.FilePath,
		Timestamp:   s.nextTimestamp(),
	}
	s.messages = append(s.messages, m)
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) CreateChannelMessage(ctx context.Context, d MessageDraft) (*models.Message, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}
	if d.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel is required", apperr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[d.ChannelID]
	if !ok {
		return nil, fmt.Errorf("%w: channel %s", apperr.ErrNotFound, d.ChannelID)
	}
	if !ch.HasMember(d.SenderID) {
		return nil, fmt.Errorf("%w: %s is not a member of channel %s", apperr.ErrNotAuthorized, d.SenderID, d.ChannelID)
	}
	m := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    d.SenderID,
		ChannelID:   d.ChannelID,
		MessageType: d.MessageType,
		Content:     d.Content,
		FilePath:    d.FilePath,
		Timestamp:   s.nextTimestamp(),
	}
	s.messages = append(s.messages, m)
	ch.UpdatedAt = m.Timestamp
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MessagesBetween(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.DirectKey(userA, userB)
	var out []*models.Message
	for _, m := range s.messages {
		if m.ChannelID == "" && m.ConversationKey() == key {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) MessagesIn(ctx context.Context, channelID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[channelID]; !ok {
		return nil, fmt.Errorf("%w: channel %s", apperr.ErrNotFound, channelID)
	}
	var out []*models.Message
	for _, m := range s.messages {
		if m.ChannelID == channelID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) DirectContacts(ctx context.Context, userID string) ([]*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := make(map[string]time.Time)
	for _, m := range s.messages {
		if m.ChannelID != "" {
			continue
		}
		var other string
		switch userID {
		case m.SenderID:
			other = m.RecipientID
		case m.RecipientID:
			other = m.SenderID
		default:
			continue
		}
		if m.Timestamp.After(last[other]) {
			last[other] = m.Timestamp
		}
	}
	var out []*models.Contact
	for id, ts := range last {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		out = append(out, &models.Contact{
			ID:              u.ID,
			Email:           u.Email,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			Image:           u.Image,
			Color:           u.Color,
			LastMessageTime: ts,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (s *MemoryStore) CreateChannel(ctx context.Context, name, adminID string, members []string) (*models.Channel, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: channel name is required", apperr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[adminID]; !ok {
		return nil, fmt.Errorf("%w: admin %s", apperr.ErrNotFound, adminID)
	}
	uniq := make([]string, 0, len(members))
	seen := map[string]bool{adminID: true}
	for _, m := range members {
		if _, ok := s.users[m]; !ok {
			return nil, fmt.Errorf("%w: member %s", apperr.ErrNotFound, m)
		}
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}
	now := s.nextTimestamp()
	ch := &models.Channel{
		ID:        uuid.NewString(),
		Name:      name,
		AdminID:   adminID,
		Members:   uniq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.channels[ch.ID] = ch
	cp := *ch
	return &cp, nil
}

func (s *MemoryStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %s", apperr.ErrNotFound, id)
	}
	cp := *ch
	return &cp, nil
}

func (s *MemoryStore) ChannelsForUser(ctx context.Context, userID string) ([]*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Channel
	for _, ch := range s.channels {
		if ch.HasMember(userID) {
			cp := *ch
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

var _ Gateway = (*MemoryStore)(nil)
