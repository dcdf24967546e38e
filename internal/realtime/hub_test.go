package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyThatUser(t *testing.T) {
	h := NewHub()
	alice := h.Subscribe("alice")
	bob := h.Subscribe("bob")
	defer alice.Close()
	defer bob.Close()

	h.Publish("alice", KeyContacts, KeyStats)

	select {
	case n := <-alice.C:
		assert.Equal(t, "invalidate", n.Type)
		assert.Equal(t, []string{"contacts", "stats"}, n.Keys)
	default:
		t.Fatal("alice did not receive the notice")
	}
	assert.Empty(t, bob.C)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	a1 := h.Subscribe("alice")
	a2 := h.Subscribe("alice")
	b := h.Subscribe("bob")
	defer a1.Close()
	defer a2.Close()
	defer b.Close()

	h.Broadcast(KeyAdminUsers)

	for _, s := range []*Subscription{a1, a2, b} {
		require.Len(t, s.C, 1)
		n := <-s.C
		assert.Equal(t, []string{"admin/users"}, n.Keys)
	}
}

func TestHub_PublishWithoutKeysIsNoop(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("alice")
	defer s.Close()

	h.Publish("alice")
	h.Broadcast()
	assert.Empty(t, s.C)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("alice")
	defer s.Close()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish("alice", KeyEmails)
	}
	assert.Len(t, s.C, subscriberBuffer)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("alice")
	require.Equal(t, 1, h.Subscribers("alice"))

	s.Close()
	s.Close()

	assert.Equal(t, 0, h.Subscribers("alice"))
	_, open := <-s.C
	assert.False(t, open)

	assert.NotPanics(t, func() { h.Publish("alice", KeyStats) })
}

func TestSplitJoinKey(t *testing.T) {
	assert.Equal(t, []string{"admin", "users"}, SplitKey(KeyAdminUsers))
	assert.Equal(t, []string{"stats"}, SplitKey(KeyStats))
	assert.Equal(t, KeyAdminSignup, JoinKey("admin", "signup-mode"))
}
