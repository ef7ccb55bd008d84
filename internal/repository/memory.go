package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenevents/server/internal/allocator"
	"github.com/greenevents/server/internal/model"
)

// MemoryStore is an in-memory implementation of the event, registration
// and profile stores. It enforces the same ledger semantics as the
// PostgreSQL repositories and backs the test suite.
type MemoryStore struct {
	mu       sync.Mutex
	events   map[string]model.Event
	regs     map[string]model.Registration
	regOrder map[string]int
	seq      int
	vols     map[string]model.VolunteerProfile
	orgs     map[string]model.OrganizerProfile
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]model.Event),
		regs:     make(map[string]model.Registration),
		regOrder: make(map[string]int),
		vols:     make(map[string]model.VolunteerProfile),
		orgs:     make(map[string]model.OrganizerProfile),
	}
}

// ── Events ───────────────────────────────────────────────────────────

// Create inserts a new event.
func (s *MemoryStore) Create(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

// ListActive returns active events ordered by start time.
func (s *MemoryStore) ListActive(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []model.Event
	for _, event := range s.events {
		if event.IsActive {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

// ListByOrganizer returns an organizer's events, newest first.
func (s *MemoryStore) ListByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []model.Event
	for _, event := range s.events {
		if event.OrganizerID == organizerID {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// Update rewrites an event.
func (s *MemoryStore) Update(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return ErrNotFound
	}
	s.events[event.ID] = *event
	return nil
}

// Deactivate clears an event's active flag.
func (s *MemoryStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	event.IsActive = false
	event.UpdatedAt = time.Now().UTC()
	s.events[id] = event
	return nil
}

// ── Registration ledger ──────────────────────────────────────────────

func regKey(eventID, volunteerID string) string {
	return eventID + "/" + volunteerID
}

func (s *MemoryStore) findLocked(eventID, volunteerID string) (model.Registration, bool) {
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.VolunteerID == volunteerID {
			return reg, true
		}
	}
	return model.Registration{}, false
}

func (s *MemoryStore) countConfirmedLocked(eventID string) int {
	count := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.Status == model.StatusConfirmed {
			count++
		}
	}
	return count
}

// Register applies the ledger get-or-create semantics under the store
// lock, which plays the role of the row lock in the PostgreSQL
// implementation.
func (s *MemoryStore) Register(_ context.Context, eventID, volunteerID string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok || !event.IsActive {
		return nil, ErrNotFound
	}

	existing, exists := s.findLocked(eventID, volunteerID)
	if exists && existing.Status.Active() {
		return nil, ErrAlreadyRegistered
	}

	status := allocator.Decide(event.Capacity, event.AllowWaitlist, s.countConfirmedLocked(eventID))

	reg := model.Registration{
		EventID:      eventID,
		VolunteerID:  volunteerID,
		Status:       status,
		RegisteredAt: time.Now().UTC(),
	}
	if exists {
		reg.ID = existing.ID
	} else {
		reg.ID = uuid.New().String()
		s.seq++
		s.regOrder[regKey(eventID, volunteerID)] = s.seq
	}
	s.regs[reg.ID] = reg
	return &reg, nil
}

// Cancel transitions an active registration to cancelled.
func (s *MemoryStore) Cancel(_ context.Context, eventID, volunteerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.findLocked(eventID, volunteerID)
	if !ok || !reg.Status.Active() {
		return ErrNotFound
	}
	reg.Status = model.StatusCancelled
	s.regs[reg.ID] = reg
	return nil
}

// GetActive returns the volunteer's active registration for an event.
func (s *MemoryStore) GetActive(_ context.Context, eventID, volunteerID string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.findLocked(eventID, volunteerID)
	if !ok || !reg.Status.Active() {
		return nil, ErrNotFound
	}
	return &reg, nil
}

// CountConfirmed returns the live confirmed count for an event.
func (s *MemoryStore) CountConfirmed(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countConfirmedLocked(eventID), nil
}

// ListByEvent returns all ledger rows for an event, newest first.
func (s *MemoryStore) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var regs []model.Registration
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			regs = append(regs, reg)
		}
	}
	s.sortNewestFirstLocked(regs)
	return regs, nil
}

// ListActiveByVolunteer returns active registrations joined with their
// events, newest first.
func (s *MemoryStore) ListActiveByVolunteer(_ context.Context, volunteerID string) ([]model.RegistrationWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var plain []model.Registration
	for _, reg := range s.regs {
		if reg.VolunteerID == volunteerID && reg.Status.Active() {
			plain = append(plain, reg)
		}
	}
	s.sortNewestFirstLocked(plain)

	regs := make([]model.RegistrationWithEvent, 0, len(plain))
	for _, reg := range plain {
		regs = append(regs, model.RegistrationWithEvent{
			Registration: reg,
			Event:        s.events[reg.EventID],
		})
	}
	return regs, nil
}

// ListConfirmedByOrganizerSince returns confirmed registrations across
// an organizer's events registered at or after the cutoff.
func (s *MemoryStore) ListConfirmedByOrganizerSince(_ context.Context, organizerID string, since time.Time) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var regs []model.Registration
	for _, reg := range s.regs {
		event, ok := s.events[reg.EventID]
		if !ok || event.OrganizerID != organizerID {
			continue
		}
		if reg.Status == model.StatusConfirmed && !reg.RegisteredAt.Before(since) {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].RegisteredAt.Before(regs[j].RegisteredAt)
	})
	return regs, nil
}

// CountConfirmedByOrganizer returns total confirmed registrations across
// an organizer's events.
func (s *MemoryStore) CountConfirmedByOrganizer(_ context.Context, organizerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, reg := range s.regs {
		event, ok := s.events[reg.EventID]
		if ok && event.OrganizerID == organizerID && reg.Status == model.StatusConfirmed {
			count++
		}
	}
	return count, nil
}

// sortNewestFirstLocked orders by registered_at descending, breaking
// timestamp ties by insertion order so results are deterministic.
func (s *MemoryStore) sortNewestFirstLocked(regs []model.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
		}
		return s.regOrder[regKey(regs[i].EventID, regs[i].VolunteerID)] >
			s.regOrder[regKey(regs[j].EventID, regs[j].VolunteerID)]
	})
}

// ── Profiles ─────────────────────────────────────────────────────────

// CreateVolunteer inserts a volunteer profile.
func (s *MemoryStore) CreateVolunteer(_ context.Context, profile *model.VolunteerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vols[profile.UserID]; ok {
		return ErrAlreadyExists
	}
	s.vols[profile.UserID] = *profile
	return nil
}

// CreateOrganizer inserts an organizer profile.
func (s *MemoryStore) CreateOrganizer(_ context.Context, profile *model.OrganizerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[profile.UserID]; ok {
		return ErrAlreadyExists
	}
	s.orgs[profile.UserID] = *profile
	return nil
}

// GetVolunteer returns a volunteer profile or ErrNotFound.
func (s *MemoryStore) GetVolunteer(_ context.Context, userID string) (*model.VolunteerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.vols[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

// GetOrganizer returns an organizer profile or ErrNotFound.
func (s *MemoryStore) GetOrganizer(_ context.Context, userID string) (*model.OrganizerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.orgs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

// SetTotalEventsAttended refreshes the cached dashboard counter.
func (s *MemoryStore) SetTotalEventsAttended(_ context.Context, userID string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.vols[userID]
	if !ok {
		return ErrNotFound
	}
	profile.TotalEventsAttended = total
	s.vols[userID] = profile
	return nil
}

// TopVolunteers returns the leaderboard with the deterministic
// tie-break on user id.
func (s *MemoryStore) TopVolunteers(_ context.Context, limit int) ([]model.VolunteerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := make([]model.VolunteerProfile, 0, len(s.vols))
	for _, profile := range s.vols {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].TotalEventsAttended != profiles[j].TotalEventsAttended {
			return profiles[i].TotalEventsAttended > profiles[j].TotalEventsAttended
		}
		return profiles[i].UserID < profiles[j].UserID
	})
	if len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

// CountAttendedMoreThan returns how many volunteers have strictly more
// attended events than the given count.
func (s *MemoryStore) CountAttendedMoreThan(_ context.Context, total int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, profile := range s.vols {
		if profile.TotalEventsAttended > total {
			count++
		}
	}
	return count, nil
}
