package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/greenevents/server/internal/analytics"
	"github.com/greenevents/server/internal/model"
)

// leaderboardSize is how many volunteers the dashboard leaderboard shows.
const leaderboardSize = 10

// AnalyticsService computes dashboard snapshots on demand. Snapshots are
// never cached; every request reads the ledger fresh.
type AnalyticsService struct {
	events   EventStore
	ledger   RegistrationLedger
	profiles ProfileStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(events EventStore, ledger RegistrationLedger, profiles ProfileStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		events:   events,
		ledger:   ledger,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// VolunteerDashboard computes the volunteer snapshot. As a side effect
// it refreshes the profile's cached total_events_attended counter; that
// write is eventually consistent and its failure does not fail the read.
func (s *AnalyticsService) VolunteerDashboard(ctx context.Context, actor model.Actor) (*model.VolunteerAnalytics, error) {
	if !actor.IsVolunteer() {
		return nil, fmt.Errorf("%w: volunteer profile required", ErrForbidden)
	}

	regs, err := s.ledger.ListActiveByVolunteer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	top, err := s.profiles.TopVolunteers(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	// Rank is computed against the cached counters, including the
	// caller's own pre-refresh value.
	above, err := s.profiles.CountAttendedMoreThan(ctx, actor.Volunteer.TotalEventsAttended)
	if err != nil {
		return nil, fmt.Errorf("compute rank: %w", err)
	}

	snapshot := analytics.VolunteerSnapshot(s.now().UTC(), regs, top, above+1)

	if err := s.profiles.SetTotalEventsAttended(ctx, actor.UserID, snapshot.PastEvents); err != nil {
		s.logger.Warn("failed to refresh attended counter",
			zap.String("user_id", actor.UserID),
			zap.Error(err),
		)
	}

	return &snapshot, nil
}

// OrganizerDashboard computes the organizer snapshot.
func (s *AnalyticsService) OrganizerDashboard(ctx context.Context, actor model.Actor) (*model.OrganizerAnalytics, error) {
	if !actor.IsOrganizer() {
		return nil, fmt.Errorf("%w: organizer profile required", ErrForbidden)
	}

	events, err := s.events.ListByOrganizer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	now := s.now().UTC()
	recent, err := s.ledger.ListConfirmedByOrganizerSince(ctx, actor.UserID, now.Add(-180*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list recent registrations: %w", err)
	}

	total, err := s.ledger.CountConfirmedByOrganizer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	snapshot := analytics.OrganizerSnapshot(now, events, recent, total)
	return &snapshot, nil
}
