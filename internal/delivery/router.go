package delivery

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-chat/internal/events"
	"github.com/fathima-sithara/realtime-chat/internal/metrics"
	"github.com/fathima-sithara/realtime-chat/internal/models"
	"github.com/fathima-sithara/realtime-chat/internal/registry"
	"github.com/fathima-sithara/realtime-chat/internal/store"
)

// Server→client push event names, matching what the client session expects.
const (
	EventReceiveMessage        = "receiveMessage"
	EventReceiveChannelMessage = "receiveChannelMessage"
)

type Envelope struct {
	Event   string          `json:"event"`
	Message *models.Message `json:"message"`
}

// Router persists an outbound message and fans it out to the live
// connections of the conversation's parties. Persistence must succeed
// before any push; pushes are fire-and-forget with no retry — an unbound
// recipient sees the message on its next history fetch.
type Router struct {
	store store.Gateway
	reg   *registry.Registry
	pub   *events.Publisher
	log   *zap.SugaredLogger
}

func NewRouter(st store.Gateway, reg *registry.Registry, pub *events.Publisher, log *zap.SugaredLogger) *Router {
	return &Router{store: st, reg: reg, pub: pub, log: log}
}

// SendDirect stores the draft and pushes the persisted message (with its
// server-assigned id and timestamp) to the recipient. The sender's own
// connection gets an echo so a sent message flows through the same inbound
// path as a received one.
func (r *Router) SendDirect(ctx context.Context, d store.MessageDraft) (*models.Message, error) {
	msg, err := r.store.CreateDirectMessage(ctx, d)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, msg)
	r.push(msg.RecipientID, EventReceiveMessage, msg)
	if msg.SenderID != msg.RecipientID {
		r.push(msg.SenderID, EventReceiveMessage, msg)
	}
	return msg, nil
}

// SendChannel stores the draft and pushes to every channel member with a
// live binding, the sender included (its copy is the send echo).
func (r *Router) SendChannel(ctx context.Context, d store.MessageDraft) (*models.Message, error) {
	msg, err := r.store.CreateChannelMessage(ctx, d)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, msg)
	ch, err := r.store.GetChannel(ctx, msg.ChannelID)
	if err != nil {
		// Persisted but membership lookup failed: skip the live push,
		// history remains the source of truth.
		r.log.Warnw("channel fanout lookup failed", "channel", msg.ChannelID, "err", err)
		return msg, nil
	}
	seen := make(map[string]bool, len(ch.Members)+1)
	for _, member := range append(ch.Members, ch.AdminID) {
		if seen[member] {
			continue
		}
		seen[member] = true
		r.push(member, EventReceiveChannelMessage, msg)
	}
	return msg, nil
}

func (r *Router) publish(ctx context.Context, msg *models.Message) {
	if r.pub == nil {
		return
	}
	if err := r.pub.MessageSent(ctx, msg); err != nil {
		r.log.Warnw("message.sent publish failed", "message", msg.ID, "err", err)
	}
}

// push delivers at most once and never surfaces failure to the sender: a
// peer that disconnected between lookup and write simply misses the live
// copy.
func (r *Router) push(userID, event string, msg *models.Message) {
	conn, ok := r.reg.Lookup(userID)
	if !ok {
		metrics.PushesDropped.WithLabelValues(event).Inc()
		return
	}
	payload, err := json.Marshal(Envelope{Event: event, Message: msg})
	if err != nil {
		r.log.Errorw("envelope marshal failed", "message", msg.ID, "err", err)
		return
	}
	if err := conn.Push(payload); err != nil {
		r.log.Debugw("live push failed", "user", userID, "message", msg.ID, "err", err)
		metrics.PushesDropped.WithLabelValues(event).Inc()
		return
	}
	metrics.PushesDelivered.WithLabelValues(event).Inc()
}
