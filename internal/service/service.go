// Package service implements business logic, authorization, and
// orchestration between HTTP handlers and the storage layer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/greenevents/server/internal/model"
	"github.com/greenevents/server/internal/repository"
)

// ErrForbidden is returned when the actor is not allowed to perform the
// operation. Authorization failures short-circuit before any mutation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalid is returned (wrapped) for malformed or semantically invalid
// input.
var ErrInvalid = errors.New("invalid input")

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// EventStore is the persistence surface for events, satisfied by the
// PostgreSQL repository and the in-memory store.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListActive(ctx context.Context) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Deactivate(ctx context.Context, id string) error
}

// RegistrationLedger is the persistence surface for the registration
// ledger.
type RegistrationLedger interface {
	Register(ctx context.Context, eventID, volunteerID string) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, volunteerID string) error
	GetActive(ctx context.Context, eventID, volunteerID string) (*model.Registration, error)
	CountConfirmed(ctx context.Context, eventID string) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListActiveByVolunteer(ctx context.Context, volunteerID string) ([]model.RegistrationWithEvent, error)
	ListConfirmedByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]model.Registration, error)
	CountConfirmedByOrganizer(ctx context.Context, organizerID string) (int, error)
}

// ProfileStore is the persistence surface for volunteer and organizer
// profiles.
type ProfileStore interface {
	CreateVolunteer(ctx context.Context, profile *model.VolunteerProfile) error
	CreateOrganizer(ctx context.Context, profile *model.OrganizerProfile) error
	GetVolunteer(ctx context.Context, userID string) (*model.VolunteerProfile, error)
	GetOrganizer(ctx context.Context, userID string) (*model.OrganizerProfile, error)
	SetTotalEventsAttended(ctx context.Context, userID string, total int) error
	TopVolunteers(ctx context.Context, limit int) ([]model.VolunteerProfile, error)
	CountAttendedMoreThan(ctx context.Context, total int) (int, error)
}
