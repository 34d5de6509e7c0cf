package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
)

func sampleSession() *Session {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	sess := New("session-1", now)
	sess.State = StateSlotOffer
	sess.Intent = IntentBook
	sess.Topic = "kyc"
	sess.Preferences = availability.Preferences{Day: "tomorrow", Time: "afternoon"}
	sess.OfferedSlots = []availability.Slot{
		{Date: "2026-09-02", Time: availability.TimeAfternoon, Formatted: "Wednesday, 02 Sep at 02:00 PM"},
	}
	return sess
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := sampleSession()
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	// The stored copy is isolated from later caller mutation.
	got.Topic = "loans"
	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "kyc", again.Topic)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := sampleSession()
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.State, got.State)
	assert.Equal(t, sess.Preferences, got.Preferences)
	require.Len(t, got.OfferedSlots, 1)
	assert.Equal(t, availability.TimeAfternoon, got.OfferedSlots[0].Time)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession()))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetFlow(t *testing.T) {
	sess := sampleSession()
	sess.BookingCode = "AD-7KQX"
	sess.CancellationPending = true
	sess.ResetFlow()

	assert.Equal(t, StateGreeting, sess.State)
	assert.Empty(t, sess.Intent)
	assert.Empty(t, sess.Topic)
	assert.True(t, sess.Preferences.Empty())
	assert.Nil(t, sess.OfferedSlots)
	assert.Nil(t, sess.SelectedSlot)
	assert.Empty(t, sess.BookingCode)
	assert.False(t, sess.CancellationPending)
}
