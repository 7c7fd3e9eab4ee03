package ws

import (
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-chat/internal/auth"
	"github.com/fathima-sithara/realtime-chat/internal/delivery"
	"github.com/fathima-sithara/realtime-chat/internal/metrics"
	"github.com/fathima-sithara/realtime-chat/internal/presence"
	"github.com/fathima-sithara/realtime-chat/internal/registry"
	"github.com/fathima-sithara/realtime-chat/internal/store"
)

// Client→server envelope. Exactly one of Recipient / ChannelID is set.
type sendEnvelope struct {
	Event       string `json:"event"`
	Recipient   string `json:"recipient,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
	Content     string `json:"content,omitempty"`
	FilePath    string `json:"filePath,omitempty"`
	MessageType string `json:"messageType"`
}

const (
	eventSendMessage        = "sendMessage"
	eventSendChannelMessage = "sendChannelMessage"
)

type Handler struct {
	reg      *registry.Registry
	router   *delivery.Router
	store    store.Gateway
	verifier *auth.Verifier
	pres     *presence.Store
	log      *zap.SugaredLogger
}

func NewHandler(reg *registry.Registry, router *delivery.Router, st store.Gateway, verifier *auth.Verifier, pres *presence.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{reg: reg, router: router, store: st, verifier: verifier, pres: pres, log: log}
}

// Handle runs for the lifetime of one websocket connection. The connection
// must carry the authenticated user identity (`token` or `userId` query);
// anything else is rejected before binding.
func (h *Handler) Handle(conn *websocket.Conn) {
	userID, ok := h.identify(conn)
	if !ok {
		_ = conn.Close()
		return
	}

	client := NewClient(userID, conn)
	h.reg.Bind(userID, client)
	metrics.ConnectionsActive.Set(float64(h.reg.Count()))
	if err := h.pres.SetOnline(context.Background(), userID); err != nil {
		h.log.Debugw("presence set online failed", "user", userID, "err", err)
	}
	h.log.Infow("connected", "user", userID)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.dispatch(userID, data)
	})

	// A reconnect may already have replaced this binding; only the owning
	// connection tears it down and flips presence.
	h.reg.Unbind(userID, client)
	if _, stillBound := h.reg.Lookup(userID); !stillBound {
		if err := h.pres.SetOffline(context.Background(), userID); err != nil {
			h.log.Debugw("presence set offline failed", "user", userID, "err", err)
		}
	}
	metrics.ConnectionsActive.Set(float64(h.reg.Count()))
	h.log.Infow("disconnected", "user", userID)
}

// connQuery is the slice of the websocket connection identify needs.
type connQuery interface {
	Query(key string, defaultValue ...string) string
}

func (h *Handler) identify(conn connQuery) (string, bool) {
	if token := conn.Query("token"); token != "" {
		userID, err := h.verifier.Verify(token)
		if err != nil {
			h.log.Warnw("rejected connection: bad token", "err", err)
			return "", false
		}
		return userID, true
	}
	userID := conn.Query("userId")
	if userID == "" {
		h.log.Warn("rejected connection: missing identity")
		return "", false
	}
	if _, err := h.store.GetUser(context.Background(), userID); err != nil {
		h.log.Warnw("rejected connection: unknown user", "user", userID)
		return "", false
	}
	return userID, true
}

// dispatch handles one inbound frame. The send path awaits persistence
// only; the router's pushes never block this loop on transport acks.
func (h *Handler) dispatch(userID string, data []byte) {
	var env sendEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.log.Debugw("dropping malformed frame", "user", userID, "err", err)
		return
	}
	draft := store.MessageDraft{
		SenderID:    userID,
		RecipientID: env.Recipient,
		ChannelID:   env.ChannelID,
		MessageType: env.MessageType,
		Content:     env.Content,
		FilePath:    env.FilePath,
	}
	ctx := context.Background()
	var err error
	switch env.Event {
	case eventSendMessage:
		_, err = h.router.SendDirect(ctx, draft)
	case eventSendChannelMessage:
		_, err = h.router.SendChannel(ctx, draft)
	default:
		h.log.Debugw("ignoring unknown event", "event", env.Event)
		return
	}
	if err != nil {
		// Persistence failed, nothing was pushed; the sender alone hears
		// about it.
		h.log.Warnw("send rejected", "user", userID, "event", env.Event, "err", err)
		h.notifyError(userID, err)
	}
}

func (h *Handler) notifyError(userID string, sendErr error) {
	conn, ok := h.reg.Lookup(userID)
	if !ok {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"event": "sendError",
		"error": sendErr.Error(),
	})
	if err != nil {
		return
	}
	_ = conn.Push(payload)
}
