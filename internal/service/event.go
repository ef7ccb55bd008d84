package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenevents/server/internal/model"
	"github.com/greenevents/server/internal/repository"
)

// maxCapacity bounds event capacity to catch fat-fingered input.
const maxCapacity = 100_000

// EventService orchestrates event management operations.
type EventService struct {
	events EventStore
	ledger RegistrationLedger
	now    func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, ledger RegistrationLedger) *EventService {
	return &EventService{events: events, ledger: ledger, now: time.Now}
}

func validateEventFields(title string, category model.Category, capacity int, startsAt time.Time, endsAt *time.Time) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: event title is required", ErrInvalid)
	}
	if !category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, category)
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be a positive integer", ErrInvalid)
	}
	if capacity > maxCapacity {
		return fmt.Errorf("%w: capacity cannot exceed %d", ErrInvalid, maxCapacity)
	}
	if startsAt.IsZero() {
		return fmt.Errorf("%w: event start time is required", ErrInvalid)
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return fmt.Errorf("%w: event end time must be after the start time", ErrInvalid)
	}
	return nil
}

// Create validates the request and inserts a new event owned by the
// acting organizer.
func (s *EventService) Create(ctx context.Context, actor model.Actor, req model.CreateEventRequest) (*model.Event, error) {
	if !actor.IsOrganizer() {
		return nil, fmt.Errorf("%w: only organizers can create events", ErrForbidden)
	}
	if err := validateEventFields(req.Title, req.Category, req.Capacity, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	event := &model.Event{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Category:      req.Category,
		OrganizerID:   actor.UserID,
		Location:      req.Location,
		Address:       req.Address,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Capacity:      req.Capacity,
		AllowWaitlist: true,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.AllowWaitlist != nil {
		event.AllowWaitlist = *req.AllowWaitlist
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Update edits an event. Only the owning organizer may edit, checked
// before anything is written.
func (s *EventService) Update(ctx context.Context, actor model.Actor, id string, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actor.UserID {
		return nil, fmt.Errorf("%w: you can only edit your own events", ErrForbidden)
	}
	if err := validateEventFields(req.Title, req.Category, req.Capacity, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Description = req.Description
	event.Category = req.Category
	event.Location = req.Location
	event.Address = req.Address
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.Capacity = req.Capacity
	event.AllowWaitlist = req.AllowWaitlist
	event.IsActive = req.IsActive
	event.UpdatedAt = s.now().UTC()

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// Deactivate soft-deletes an event. Only the owning organizer may do so.
func (s *EventService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != actor.UserID {
		return fmt.Errorf("%w: you can only delete your own events", ErrForbidden)
	}
	return s.events.Deactivate(ctx, id)
}

// Get returns the event detail view, including the caller's own active
// registration when they are a volunteer.
func (s *EventService) Get(ctx context.Context, actor model.Actor, id string) (*model.EventDetail, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.ledger.CountConfirmed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}

	detail := &model.EventDetail{
		Event:          *event,
		ConfirmedCount: confirmed,
		SpotsRemaining: event.SpotsRemaining(confirmed),
	}

	if actor.IsVolunteer() {
		reg, err := s.ledger.GetActive(ctx, id, actor.UserID)
		switch {
		case err == nil:
			detail.Registration = reg
		case errors.Is(err, repository.ErrNotFound):
			// not registered, nothing to attach
		default:
			return nil, fmt.Errorf("get registration: %w", err)
		}
	}
	return detail, nil
}

// List returns all active events.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.ListActive(ctx)
}

// Registrations returns the ledger rows for an event, grouped by status.
// Only the owning organizer may view them.
func (s *EventService) Registrations(ctx context.Context, actor model.Actor, eventID string) (*model.EventRegistrations, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actor.UserID {
		return nil, fmt.Errorf("%w: you can only view registrations for your own events", ErrForbidden)
	}

	all, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	result := &model.EventRegistrations{
		Event:     *event,
		Confirmed: []model.Registration{},
		Waitlist:  []model.Registration{},
		All:       all,
	}
	for _, reg := range all {
		switch reg.Status {
		case model.StatusConfirmed:
			result.Confirmed = append(result.Confirmed, reg)
		case model.StatusWaitlist:
			result.Waitlist = append(result.Waitlist, reg)
		}
	}
	return result, nil
}
