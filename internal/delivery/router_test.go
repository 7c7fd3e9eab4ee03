package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/logger"
	"github.com/fathima-sithara/realtime-chat/internal/models"
	"github.com/fathima-sithara/realtime-chat/internal/registry"
	"github.com/fathima-sithara/realtime-chat/internal/store"
)

type captureConn struct {
	pushes []Envelope
	fail   bool
}

func (c *captureConn) Push(payload []byte) error {
	if c.fail {
		return errors.New("transport closed")
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	c.pushes = append(c.pushes, env)
	return nil
}

func newFixture(t *testing.T, users ...string) (*Router, *store.MemoryStore, *registry.Registry) {
	t.Helper()
	st := store.NewMemoryStore()
	for _, u := range users {
		_, err := st.CreateUser(context.Background(), &models.User{ID: u, Email: u + "@example.com"})
		require.NoError(t, err)
	}
	reg := registry.New()
	return NewRouter(st, reg, nil, logger.Nop()), st, reg
}

func textDraft(sender, recipient string) store.MessageDraft {
	return store.MessageDraft{
		SenderID:    sender,
		RecipientID: recipient,
		MessageType: models.MessageTypeText,
		Content:     "hello",
	}
}

func TestSendDirectPushesToRecipientAndEchoesSender(t *testing.T) {
	router, _, reg := newFixture(t, "alice", "bob")
	alice := &captureConn{}
	bob := &captureConn{}
	reg.Bind("alice", alice)
	reg.Bind("bob", bob)

	msg, err := router.SendDirect(context.Background(), textDraft("alice", "bob"))
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.Timestamp.IsZero(), "push must carry the resolved timestamp")

	require.Len(t, bob.pushes, 1)
	require.Equal(t, EventReceiveMessage, bob.pushes[0].Event)
	require.Equal(t, msg.ID, bob.pushes[0].Message.ID)

	require.Len(t, alice.pushes, 1, "sender gets an echo of its own send")
}

func TestSendDirectOfflineRecipientStillVisibleInHistory(t *testing.T) {
	router, st, reg := newFixture(t, "alice", "bob")
	alice := &captureConn{}
	reg.Bind("alice", alice)
	// bob has no live connection

	msg, err := router.SendDirect(context.Background(), textDraft("alice", "bob"))
	require.NoError(t, err)

	msgs, err := st.MessagesBetween(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, msg.ID, msgs[0].ID)
}

func TestSendDirectPersistFailureMeansNoPush(t *testing.T) {
	router, _, reg := newFixture(t, "alice")
	alice := &captureConn{}
	reg.Bind("alice", alice)

	_, err := router.SendDirect(context.Background(), textDraft("alice", "ghost"))
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Empty(t, alice.pushes, "nothing may be pushed when persistence fails")
}

func TestSendDirectPushFailureIsSwallowed(t *testing.T) {
	router, st, reg := newFixture(t, "alice", "bob")
	reg.Bind("bob", &captureConn{fail: true})

	msg, err := router.SendDirect(context.Background(), textDraft("alice", "bob"))
	require.NoError(t, err, "a failed live push is not a send error")

	msgs, err := st.MessagesBetween(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, msg.ID, msgs[0].ID)
}

func TestSendChannelFansOutToBoundMembers(t *testing.T) {
	router, st, reg := newFixture(t, "x", "y", "z")
	ch, err := st.CreateChannel(context.Background(), "team", "x", []string{"y", "z"})
	require.NoError(t, err)

	x := &captureConn{}
	y := &captureConn{}
	reg.Bind("x", x)
	reg.Bind("y", y)
	// z offline

	msg, err := router.SendChannel(context.Background(), store.MessageDraft{
		SenderID:    "x",
		ChannelID:   ch.ID,
		MessageType: models.MessageTypeText,
		Content:     "hello team",
	})
	require.NoError(t, err)

	require.Len(t, y.pushes, 1)
	require.Equal(t, EventReceiveChannelMessage, y.pushes[0].Event)
	require.Equal(t, msg.ID, y.pushes[0].Message.ID)
	require.Len(t, x.pushes, 1, "sender echo")

	msgs, err := st.MessagesIn(context.Background(), ch.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "offline member sees the message via history")
}

func TestSendChannelNonMemberRejected(t *testing.T) {
	router, st, reg := newFixture(t, "x", "y", "z")
	ch, err := st.CreateChannel(context.Background(), "team", "x", []string{"y"})
	require.NoError(t, err)

	y := &captureConn{}
	reg.Bind("y", y)

	_, err = router.SendChannel(context.Background(), store.MessageDraft{
		SenderID:    "z",
		ChannelID:   ch.ID,
		MessageType: models.MessageTypeText,
		Content:     "intrusion",
	})
	require.ErrorIs(t, err, apperr.ErrNotAuthorized)
	require.Empty(t, y.pushes)
}

func TestPushNeverReachesEvictedConnection(t *testing.T) {
	router, _, reg := newFixture(t, "alice", "bob")
	stale := &captureConn{}
	current := &captureConn{}
	reg.Bind("bob", stale)
	reg.Bind("bob", current)

	_, err := router.SendDirect(context.Background(), textDraft("alice", "bob"))
	require.NoError(t, err)

	require.Empty(t, stale.pushes)
	require.Len(t, current.pushes, 1)
}
