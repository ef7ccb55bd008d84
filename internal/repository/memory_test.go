package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenevents/server/internal/model"
)

func newStoreWithEvent(t *testing.T, capacity int, allowWaitlist bool) (*MemoryStore, string) {
	t.Helper()
	store := NewMemoryStore()
	event := &model.Event{
		ID:            "evt-1",
		Title:         "Beach Cleanup",
		Category:      model.CategoryBeachCleanup,
		OrganizerID:   "org-1",
		StartsAt:      time.Now().Add(48 * time.Hour),
		Capacity:      capacity,
		AllowWaitlist: allowWaitlist,
		IsActive:      true,
	}
	require.NoError(t, store.Create(context.Background(), event))
	return store, event.ID
}

func TestRegister_FillsThenWaitlists(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 2, true)

	a, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, a.Status)

	b, err := store.Register(ctx, eventID, "vol-b")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)

	c, err := store.Register(ctx, eventID, "vol-c")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitlist, c.Status)

	confirmed, err := store.CountConfirmed(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 2, confirmed)
}

func TestRegister_NoHardCapWithoutWaitlist(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 2, false)

	for i := 0; i < 7; i++ {
		reg, err := store.Register(ctx, eventID, fmt.Sprintf("vol-%d", i))
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, reg.Status)
	}

	confirmed, err := store.CountConfirmed(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 7, confirmed)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 5, true)

	_, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)

	_, err = store.Register(ctx, eventID, "vol-a")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// Still exactly one row for the pair.
	rows, err := store.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRegister_UnknownOrInactiveEvent(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 5, true)

	_, err := store.Register(ctx, "no-such-event", "vol-a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Deactivate(ctx, eventID))
	_, err = store.Register(ctx, eventID, "vol-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReRegister_ReusesRow(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 5, true)

	first, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)

	require.NoError(t, store.Cancel(ctx, eventID, "vol-a"))

	again, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "re-registration must reuse the existing row")
	assert.Equal(t, model.StatusConfirmed, again.Status)

	rows, err := store.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCancel_RequiresActiveRegistration(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 5, true)

	// Never registered.
	assert.ErrorIs(t, store.Cancel(ctx, eventID, "vol-a"), ErrNotFound)

	_, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)
	require.NoError(t, store.Cancel(ctx, eventID, "vol-a"))

	// Already cancelled.
	assert.ErrorIs(t, store.Cancel(ctx, eventID, "vol-a"), ErrNotFound)
}

func TestCancel_DoesNotPromoteWaitlist(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 2, true)

	// A and B confirmed, C waitlisted.
	_, err := store.Register(ctx, eventID, "vol-a")
	require.NoError(t, err)
	_, err = store.Register(ctx, eventID, "vol-b")
	require.NoError(t, err)
	c, err := store.Register(ctx, eventID, "vol-c")
	require.NoError(t, err)
	require.Equal(t, model.StatusWaitlist, c.Status)

	// A cancels: C stays on the waitlist, the freed seat is only handed
	// out by the allocator on the next registration attempt.
	require.NoError(t, store.Cancel(ctx, eventID, "vol-a"))

	c2, err := store.GetActive(ctx, eventID, "vol-c")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitlist, c2.Status)

	d, err := store.Register(ctx, eventID, "vol-d")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, d.Status)
}

func TestRegister_ConcurrentAttemptsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 1, true)

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Register(ctx, eventID, "vol-a")
		}()
	}
	wg.Wait()

	rows, err := store.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "uniqueness must hold under concurrent attempts")
}

func TestRegister_ConcurrentCapacityNotOverrun(t *testing.T) {
	ctx := context.Background()
	store, eventID := newStoreWithEvent(t, 3, true)

	const volunteers = 12
	var wg sync.WaitGroup
	for i := 0; i < volunteers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = store.Register(ctx, eventID, fmt.Sprintf("vol-%d", n))
		}(i)
	}
	wg.Wait()

	confirmed, err := store.CountConfirmed(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 3, confirmed)

	rows, err := store.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, rows, volunteers)
}

func TestTopVolunteers_DeterministicTieBreak(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, p := range []model.VolunteerProfile{
		{UserID: "u3", Name: "C", TotalEventsAttended: 5},
		{UserID: "u1", Name: "A", TotalEventsAttended: 5},
		{UserID: "u2", Name: "B", TotalEventsAttended: 9},
	} {
		profile := p
		require.NoError(t, store.CreateVolunteer(ctx, &profile))
	}

	top, err := store.TopVolunteers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "u2", top[0].UserID)
	assert.Equal(t, "u1", top[1].UserID)
	assert.Equal(t, "u3", top[2].UserID)

	above, err := store.CountAttendedMoreThan(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, above)
}
