package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/greenevents/server/internal/model"
	"github.com/greenevents/server/internal/notify"
)

// RegistrationService orchestrates the registration lifecycle and the
// best-effort notifications that follow it.
type RegistrationService struct {
	events   EventStore
	ledger   RegistrationLedger
	profiles ProfileStore
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(events EventStore, ledger RegistrationLedger, profiles ProfileStore, notifier notify.Notifier, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		events:   events,
		ledger:   ledger,
		profiles: profiles,
		notifier: notifier,
		logger:   logger,
	}
}

// Register records a registration attempt for the acting volunteer. The
// ledger decides confirmed versus waitlist; emails go out afterwards,
// off the request path, and their failure never affects the result.
func (s *RegistrationService) Register(ctx context.Context, actor model.Actor, eventID string) (*model.Registration, error) {
	if !actor.IsVolunteer() {
		return nil, fmt.Errorf("%w: only volunteers can register for events", ErrForbidden)
	}

	reg, err := s.ledger.Register(ctx, eventID, actor.UserID)
	if err != nil {
		return nil, err
	}

	volunteer := *actor.Volunteer
	go s.notifyRegistration(context.Background(), reg, &volunteer)

	return reg, nil
}

// Cancel withdraws the acting volunteer's active registration. The
// freed seat is not handed to anyone on the waitlist; it is only
// reassigned by the allocator on a later registration attempt.
func (s *RegistrationService) Cancel(ctx context.Context, actor model.Actor, eventID string) error {
	if !actor.IsVolunteer() {
		return fmt.Errorf("%w: only volunteers can cancel registrations", ErrForbidden)
	}
	return s.ledger.Cancel(ctx, eventID, actor.UserID)
}

// notifyRegistration sends the volunteer ticket email and the organizer
// alert. Every failure is logged and swallowed.
func (s *RegistrationService) notifyRegistration(ctx context.Context, reg *model.Registration, volunteer *model.VolunteerProfile) {
	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		s.logger.Warn("notification skipped: event lookup failed",
			zap.String("event_id", reg.EventID),
			zap.Error(err),
		)
		return
	}

	confirmed, err := s.ledger.CountConfirmed(ctx, reg.EventID)
	if err != nil {
		s.logger.Warn("notification: confirmed count failed",
			zap.String("event_id", reg.EventID),
			zap.Error(err),
		)
	}

	subject, body := notify.TicketEmail(event, reg, volunteer)
	if err := s.notifier.Send(ctx, volunteer.Email, subject, body); err != nil {
		s.logger.Warn("volunteer ticket email failed",
			zap.String("registration_id", reg.ID),
			zap.Error(err),
		)
	}

	organizer, err := s.profiles.GetOrganizer(ctx, event.OrganizerID)
	if err != nil {
		s.logger.Warn("notification skipped: organizer lookup failed",
			zap.String("organizer_id", event.OrganizerID),
			zap.Error(err),
		)
		return
	}

	subject, body = notify.OrganizerAlertEmail(event, reg, volunteer, organizer, confirmed)
	if err := s.notifier.Send(ctx, organizer.Email, subject, body); err != nil {
		s.logger.Warn("organizer alert email failed",
			zap.String("registration_id", reg.ID),
			zap.Error(err),
		)
	}
}
