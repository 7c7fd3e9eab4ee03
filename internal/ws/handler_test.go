package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-chat/internal/auth"
	"github.com/fathima-sithara/realtime-chat/internal/delivery"
	"github.com/fathima-sithara/realtime-chat/internal/logger"
	"github.com/fathima-sithara/realtime-chat/internal/models"
	"github.com/fathima-sithara/realtime-chat/internal/registry"
	"github.com/fathima-sithara/realtime-chat/internal/store"
)

type queryValues map[string]string

func (q queryValues) Query(key string, defaultValue ...string) string {
	if v, ok := q[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func newTestHandler(t *testing.T) (*Handler, *store.MemoryStore, *auth.Verifier) {
	t.Helper()
	st := store.NewMemoryStore()
	verifier := auth.NewVerifier("test-secret")
	log := logger.Nop()
	reg := registry.New()
	router := delivery.NewRouter(st, reg, nil, log)
	return NewHandler(reg, router, st, verifier, nil, log), st, verifier
}

func TestIdentifyRejectsMissingIdentity(t *testing.T) {
	h, _, _ := newTestHandler(t)
	_, ok := h.identify(queryValues{})
	require.False(t, ok)
}

func TestIdentifyRejectsBadToken(t *testing.T) {
	h, _, _ := newTestHandler(t)
	_, ok := h.identify(queryValues{"token": "not-a-jwt"})
	require.False(t, ok)

	foreign, err := auth.NewVerifier("other-secret").Sign("alice", time.Hour)
	require.NoError(t, err)
	_, ok = h.identify(queryValues{"token": foreign})
	require.False(t, ok, "token signed with a different secret must be rejected")
}

func TestIdentifyAcceptsValidToken(t *testing.T) {
	h, _, verifier := newTestHandler(t)
	token, err := verifier.Sign("alice", time.Hour)
	require.NoError(t, err)

	userID, ok := h.identify(queryValues{"token": token})
	require.True(t, ok)
	require.Equal(t, "alice", userID)
}

func TestIdentifyRejectsUnknownUserID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	_, ok := h.identify(queryValues{"userId": "ghost"})
	require.False(t, ok)
}

func TestIdentifyAcceptsKnownUserID(t *testing.T) {
	h, st, _ := newTestHandler(t)
	_, err := st.CreateUser(context.Background(), &models.User{ID: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	userID, ok := h.identify(queryValues{"userId": "alice"})
	require.True(t, ok)
	require.Equal(t, "alice", userID)
}
