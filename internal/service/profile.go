package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greenevents/server/internal/model"
)

// ProfileService creates the volunteer/organizer halves of an identity.
// Authentication itself lives upstream; this only attaches a role
// profile to an already-authenticated user id.
type ProfileService struct {
	profiles ProfileStore
	now      func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles, now: time.Now}
}

// CreateVolunteer attaches a volunteer profile to the acting user. A
// user holds at most one profile of either kind.
func (s *ProfileService) CreateVolunteer(ctx context.Context, actor model.Actor, req model.CreateVolunteerProfileRequest) (*model.VolunteerProfile, error) {
	if actor.IsRegistered() {
		return nil, fmt.Errorf("%w: you already have a profile", ErrInvalid)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	profile := &model.VolunteerProfile{
		UserID:    actor.UserID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		City:      req.City,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.CreateVolunteer(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateOrganizer attaches an organizer profile to the acting user.
func (s *ProfileService) CreateOrganizer(ctx context.Context, actor model.Actor, req model.CreateOrganizerProfileRequest) (*model.OrganizerProfile, error) {
	if actor.IsRegistered() {
		return nil, fmt.Errorf("%w: you already have a profile", ErrInvalid)
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrInvalid)
	}

	profile := &model.OrganizerProfile{
		UserID:           actor.UserID,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Website:          req.Website,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.profiles.CreateOrganizer(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ResolveActor determines the caller's role once per request: volunteer,
// organizer, or unregistered. Handlers read the result from the request
// context instead of re-probing profiles.
func ResolveActor(ctx context.Context, profiles ProfileStore, userID string) (model.Actor, error) {
	actor := model.Actor{UserID: userID}

	volunteer, err := profiles.GetVolunteer(ctx, userID)
	if err == nil {
		actor.Volunteer = volunteer
		return actor, nil
	}
	if !isNotFound(err) {
		return actor, fmt.Errorf("resolve volunteer profile: %w", err)
	}

	organizer, err := profiles.GetOrganizer(ctx, userID)
	if err == nil {
		actor.Organizer = organizer
		return actor, nil
	}
	if !isNotFound(err) {
		return actor, fmt.Errorf("resolve organizer profile: %w", err)
	}

	return actor, nil
}
