package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenevents/server/internal/model"
	"github.com/greenevents/server/internal/repository"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (n *recordingNotifier) all() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

func volunteerActor(id, name, email string) model.Actor {
	return model.Actor{
		UserID:    id,
		Volunteer: &model.VolunteerProfile{UserID: id, Name: name, Email: email},
	}
}

func organizerActor(id, org, email string) model.Actor {
	return model.Actor{
		UserID:    id,
		Organizer: &model.OrganizerProfile{UserID: id, OrganizationName: org, Email: email},
	}
}

func seedOrganizer(t *testing.T, store *repository.MemoryStore, id, org, email string) model.Actor {
	t.Helper()
	profile := &model.OrganizerProfile{UserID: id, OrganizationName: org, Email: email}
	require.NoError(t, store.CreateOrganizer(context.Background(), profile))
	return model.Actor{UserID: id, Organizer: profile}
}

func seedVolunteer(t *testing.T, store *repository.MemoryStore, id, name, email string) model.Actor {
	t.Helper()
	profile := &model.VolunteerProfile{UserID: id, Name: name, Email: email}
	require.NoError(t, store.CreateVolunteer(context.Background(), profile))
	return model.Actor{UserID: id, Volunteer: profile}
}

func createEventReq(capacity int) model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:       "Park Cleanup",
		Description: "Bring gloves.",
		Category:    model.CategoryCleanup,
		Location:    "Central Park",
		StartsAt:    time.Now().Add(72 * time.Hour),
		Capacity:    capacity,
	}
}

// ── Events ───────────────────────────────────────────────────────────

func TestEventService_CreateRequiresOrganizer(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	_, err := svc.Create(context.Background(), volunteerActor("v1", "Asha", "a@x.org"), createEventReq(10))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_CreateValidation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)
	org := organizerActor("o1", "Green Earth", "e@g.org")

	req := createEventReq(0)
	_, err := svc.Create(context.Background(), org, req)
	assert.ErrorIs(t, err, ErrInvalid)

	req = createEventReq(10)
	req.Category = "bake_sale"
	_, err = svc.Create(context.Background(), org, req)
	assert.ErrorIs(t, err, ErrInvalid)

	req = createEventReq(10)
	ends := req.StartsAt.Add(-time.Hour)
	req.EndsAt = &ends
	_, err = svc.Create(context.Background(), org, req)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEventService_CreateDefaults(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	event, err := svc.Create(context.Background(), organizerActor("o1", "Green Earth", "e@g.org"), createEventReq(10))
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "o1", event.OrganizerID)
	assert.True(t, event.AllowWaitlist, "waitlist defaults to enabled")
	assert.True(t, event.IsActive)
}

func TestEventService_UpdateOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	owner := organizerActor("o1", "Green Earth", "e@g.org")
	event, err := svc.Create(ctx, owner, createEventReq(10))
	require.NoError(t, err)

	req := model.UpdateEventRequest{
		Title:       "Renamed",
		Description: event.Description,
		Category:    event.Category,
		Location:    event.Location,
		StartsAt:    event.StartsAt,
		Capacity:    event.Capacity,
		IsActive:    true,
	}

	_, err = svc.Update(ctx, organizerActor("o2", "Other", "o@x.org"), event.ID, req)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, owner, event.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestEventService_DeactivateOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	owner := organizerActor("o1", "Green Earth", "e@g.org")
	event, err := svc.Create(ctx, owner, createEventReq(10))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Deactivate(ctx, organizerActor("o2", "Other", "o@x.org"), event.ID), ErrForbidden)

	require.NoError(t, svc.Deactivate(ctx, owner, event.ID))
	got, err := store.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestEventService_GetIncludesOccupancy(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	event, err := svc.Create(ctx, organizerActor("o1", "Green Earth", "e@g.org"), createEventReq(3))
	require.NoError(t, err)

	_, err = store.Register(ctx, event.ID, "v1")
	require.NoError(t, err)

	detail, err := svc.Get(ctx, volunteerActor("v1", "Asha", "a@x.org"), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ConfirmedCount)
	assert.Equal(t, 2, detail.SpotsRemaining)
	require.NotNil(t, detail.Registration)
	assert.Equal(t, model.StatusConfirmed, detail.Registration.Status)

	// Unregistered viewer gets no registration attached.
	detail, err = svc.Get(ctx, model.Actor{UserID: "anon"}, event.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Registration)
}

func TestEventService_RegistrationsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewEventService(store, store)

	owner := organizerActor("o1", "Green Earth", "e@g.org")
	event, err := svc.Create(ctx, owner, createEventReq(1))
	require.NoError(t, err)

	for _, v := range []string{"v1", "v2", "v3"} {
		_, err = store.Register(ctx, event.ID, v)
		require.NoError(t, err)
	}
	require.NoError(t, store.Cancel(ctx, event.ID, "v2"))

	_, err = svc.Registrations(ctx, organizerActor("o2", "Other", "o@x.org"), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	regs, err := svc.Registrations(ctx, owner, event.ID)
	require.NoError(t, err)
	assert.Len(t, regs.All, 3)
	assert.Len(t, regs.Confirmed, 1)
	assert.Len(t, regs.Waitlist, 1)
}

// ── Registration lifecycle ───────────────────────────────────────────

func TestRegistrationService_CapacityScenario(t *testing.T) {
	// Capacity 2 with waitlist: A and B confirm, C waitlists. A cancels
	// and C stays waitlisted. D then takes the freed seat.
	ctx := context.Background()
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	eventSvc := NewEventService(store, store)
	regSvc := NewRegistrationService(store, store, store, notifier, zap.NewNop())

	org := seedOrganizer(t, store, "o1", "Green Earth", "e@g.org")
	event, err := eventSvc.Create(ctx, org, createEventReq(2))
	require.NoError(t, err)

	a := seedVolunteer(t, store, "va", "A", "a@x.org")
	b := seedVolunteer(t, store, "vb", "B", "b@x.org")
	c := seedVolunteer(t, store, "vc", "C", "c@x.org")
	d := seedVolunteer(t, store, "vd", "D", "d@x.org")

	regA, err := regSvc.Register(ctx, a, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, regA.Status)

	regB, err := regSvc.Register(ctx, b, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, regB.Status)

	regC, err := regSvc.Register(ctx, c, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitlist, regC.Status)

	require.NoError(t, regSvc.Cancel(ctx, a, event.ID))

	stillWaitlisted, err := store.GetActive(ctx, event.ID, c.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitlist, stillWaitlisted.Status)

	regD, err := regSvc.Register(ctx, d, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, regD.Status)
}

func TestRegistrationService_OnlyVolunteers(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	regSvc := NewRegistrationService(store, store, store, &recordingNotifier{}, zap.NewNop())

	org := organizerActor("o1", "Green Earth", "e@g.org")
	_, err := regSvc.Register(ctx, org, "evt")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, regSvc.Cancel(ctx, org, "evt"), ErrForbidden)
}

func TestRegistrationService_DuplicateAndUnknownEvent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	eventSvc := NewEventService(store, store)
	regSvc := NewRegistrationService(store, store, store, &recordingNotifier{}, zap.NewNop())

	org := seedOrganizer(t, store, "o1", "Green Earth", "e@g.org")
	event, err := eventSvc.Create(ctx, org, createEventReq(5))
	require.NoError(t, err)

	vol := seedVolunteer(t, store, "v1", "Asha", "a@x.org")

	_, err = regSvc.Register(ctx, vol, "no-such-event")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = regSvc.Register(ctx, vol, event.ID)
	require.NoError(t, err)
	_, err = regSvc.Register(ctx, vol, event.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
}

func TestRegistrationService_SendsBothEmails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	eventSvc := NewEventService(store, store)
	regSvc := NewRegistrationService(store, store, store, notifier, zap.NewNop())

	org := seedOrganizer(t, store, "o1", "Green Earth", "events@greenearth.org")
	event, err := eventSvc.Create(ctx, org, createEventReq(5))
	require.NoError(t, err)

	vol := seedVolunteer(t, store, "v1", "Asha", "asha@example.org")
	reg, err := store.Register(ctx, event.ID, vol.UserID)
	require.NoError(t, err)

	// Invoke the notification path directly rather than racing the
	// fire-and-forget goroutine.
	regSvc.notifyRegistration(ctx, reg, vol.Volunteer)

	sent := notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "asha@example.org", sent[0].to)
	assert.Contains(t, sent[0].subject, "Your Event Ticket")
	assert.Equal(t, "events@greenearth.org", sent[1].to)
	assert.Contains(t, sent[1].subject, "New Registration")
}

// ── Analytics ────────────────────────────────────────────────────────

func TestAnalyticsService_VolunteerDashboard(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	eventSvc := NewEventService(store, store)
	svc := NewAnalyticsService(store, store, store, zap.NewNop())

	org := seedOrganizer(t, store, "o1", "Green Earth", "e@g.org")
	vol := seedVolunteer(t, store, "v1", "Asha", "a@x.org")
	rival := seedVolunteer(t, store, "v2", "Ben", "b@x.org")
	require.NoError(t, store.SetTotalEventsAttended(ctx, rival.UserID, 8))

	// One past and one upcoming event, both confirmed.
	past := createEventReq(10)
	past.StartsAt = time.Now().Add(-48 * time.Hour)
	pastEvent, err := eventSvc.Create(ctx, org, past)
	require.NoError(t, err)

	upcoming := createEventReq(10)
	upcomingEvent, err := eventSvc.Create(ctx, org, upcoming)
	require.NoError(t, err)

	_, err = store.Register(ctx, pastEvent.ID, vol.UserID)
	require.NoError(t, err)
	_, err = store.Register(ctx, upcomingEvent.ID, vol.UserID)
	require.NoError(t, err)

	snap, err := svc.VolunteerDashboard(ctx, vol)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.TotalRegistered)
	assert.Equal(t, 1, snap.UpcomingEvents)
	assert.Equal(t, 1, snap.PastEvents)
	assert.Equal(t, "Beginner", snap.AchievementLevel)
	assert.Equal(t, 10, snap.TotalPoints)
	assert.Equal(t, 0, snap.StreakDays) // registered moments ago
	assert.Equal(t, 2, snap.LeaderboardRank)
	require.Len(t, snap.Leaderboard, 2)
	assert.Equal(t, "v2", snap.Leaderboard[0].UserID)

	// The cached counter was refreshed to past_events.
	profile, err := store.GetVolunteer(ctx, vol.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalEventsAttended)
}

func TestAnalyticsService_VolunteerDashboardRequiresVolunteer(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAnalyticsService(store, store, store, zap.NewNop())

	_, err := svc.VolunteerDashboard(context.Background(), organizerActor("o1", "X", "x@x.org"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAnalyticsService_OrganizerDashboard(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	eventSvc := NewEventService(store, store)
	svc := NewAnalyticsService(store, store, store, zap.NewNop())

	org := seedOrganizer(t, store, "o1", "Green Earth", "e@g.org")
	seedVolunteer(t, store, "v1", "Asha", "a@x.org")

	past := createEventReq(10)
	past.Category = model.CategoryRecycling
	past.StartsAt = time.Now().Add(-24 * time.Hour)
	pastEvent, err := eventSvc.Create(ctx, org, past)
	require.NoError(t, err)

	upcoming := createEventReq(10)
	_, err = eventSvc.Create(ctx, org, upcoming)
	require.NoError(t, err)

	_, err = store.Register(ctx, pastEvent.ID, "v1")
	require.NoError(t, err)

	snap, err := svc.OrganizerDashboard(ctx, org)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.TotalEvents)
	assert.Equal(t, 1, snap.UpcomingEvents)
	assert.Equal(t, 1, snap.PastEvents)
	assert.Equal(t, 50, snap.UpcomingPercentage)
	assert.Equal(t, 1, snap.TotalRegistrations)
	require.Len(t, snap.Categories, 2)
	assert.Equal(t, "General Cleanup", snap.Categories[0].Label)

	_, err = svc.OrganizerDashboard(ctx, volunteerActor("v1", "Asha", "a@x.org"))
	assert.ErrorIs(t, err, ErrForbidden)
}

// ── Profiles / actor resolution ──────────────────────────────────────

func TestProfileService_CreateAndResolve(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewProfileService(store)

	anon := model.Actor{UserID: "u1"}
	profile, err := svc.CreateVolunteer(ctx, anon, model.CreateVolunteerProfileRequest{
		Name:  "  Asha  ",
		Email: "Asha@Example.ORG",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile.Name)
	assert.Equal(t, "asha@example.org", profile.Email)

	actor, err := ResolveActor(ctx, store, "u1")
	require.NoError(t, err)
	assert.True(t, actor.IsVolunteer())
	assert.False(t, actor.IsOrganizer())

	// A second profile of either kind is rejected.
	_, err = svc.CreateOrganizer(ctx, actor, model.CreateOrganizerProfileRequest{
		OrganizationName: "Green Earth",
		Email:            "e@g.org",
	})
	assert.ErrorIs(t, err, ErrInvalid)

	// Unknown users resolve as unregistered.
	actor, err = ResolveActor(ctx, store, "nobody")
	require.NoError(t, err)
	assert.False(t, actor.IsRegistered())
}
