package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenevents/server/internal/allocator"
	"github.com/greenevents/server/internal/model"
)

// RegistrationRepository is the registration ledger: one row per
// (event, volunteer) pair, enforced by a unique constraint.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register records a registration attempt inside a single transaction.
//
// The naive read-then-write sequence (count confirmed rows, decide
// status, insert) is racy: two attempts for the last open seat can both
// read the same confirmed count and both be confirmed. SELECT ... FOR
// UPDATE on the event row serialises concurrent attempts for the same
// event, so the count each attempt sees is the count it commits against.
//
// An active existing row fails with ErrAlreadyRegistered. A cancelled
// row is reopened: its status and registered_at are overwritten and the
// row id is reused. Otherwise a new row is inserted.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, volunteerID string) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row so capacity decisions for this event are
	// serialised until commit.
	var capacity int
	var allowWaitlist, isActive bool
	err = tx.QueryRow(ctx,
		`SELECT capacity, allow_waitlist, is_active
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&capacity, &allowWaitlist, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	if !isActive {
		err = ErrNotFound
		return nil, err
	}

	var existingID string
	var existingStatus model.Status
	err = tx.QueryRow(ctx,
		`SELECT id, status FROM registrations WHERE event_id = $1 AND volunteer_id = $2`,
		eventID, volunteerID,
	).Scan(&existingID, &existingStatus)
	switch {
	case err == nil:
		if existingStatus.Active() {
			err = ErrAlreadyRegistered
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		err = nil
	default:
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	var confirmed int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, model.StatusConfirmed,
	).Scan(&confirmed)
	if err != nil {
		return nil, fmt.Errorf("count confirmed registrations: %w", err)
	}

	reg := &model.Registration{
		EventID:      eventID,
		VolunteerID:  volunteerID,
		Status:       allocator.Decide(capacity, allowWaitlist, confirmed),
		RegisteredAt: time.Now().UTC(),
	}

	if existingID != "" {
		// Reopen the cancelled row, keeping its id.
		reg.ID = existingID
		_, err = tx.Exec(ctx,
			`UPDATE registrations SET status = $2, registered_at = $3 WHERE id = $1`,
			reg.ID, reg.Status, reg.RegisteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("reopen registration: %w", err)
		}
	} else {
		reg.ID = uuid.New().String()
		_, err = tx.Exec(ctx,
			`INSERT INTO registrations (id, event_id, volunteer_id, status, registered_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			reg.ID, reg.EventID, reg.VolunteerID, reg.Status, reg.RegisteredAt,
		)
		if err != nil {
			// The unique constraint is the final arbiter of one row per
			// (event, volunteer), independent of the checks above.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				err = ErrAlreadyRegistered
				return nil, err
			}
			return nil, fmt.Errorf("insert registration: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// Cancel transitions an active registration to cancelled. Cancellation
// never promotes a waitlisted registrant; freed capacity is only handed
// out on the next registration attempt.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, volunteerID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET status = $3
		 WHERE event_id = $1 AND volunteer_id = $2 AND status IN ($4, $5)`,
		eventID, volunteerID, model.StatusCancelled, model.StatusConfirmed, model.StatusWaitlist,
	)
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActive returns the volunteer's active registration for an event, or
// ErrNotFound.
func (r *RegistrationRepository) GetActive(ctx context.Context, eventID, volunteerID string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, volunteer_id, status, registered_at
		 FROM registrations
		 WHERE event_id = $1 AND volunteer_id = $2 AND status IN ($3, $4)`,
		eventID, volunteerID, model.StatusConfirmed, model.StatusWaitlist,
	).Scan(&reg.ID, &reg.EventID, &reg.VolunteerID, &reg.Status, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// CountConfirmed returns the live confirmed count for an event.
func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, model.StatusConfirmed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmed registrations: %w", err)
	}
	return count, nil
}

// ListByEvent returns all ledger rows for an event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, volunteer_id, status, registered_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY registered_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.VolunteerID, &reg.Status, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ListActiveByVolunteer returns the volunteer's active registrations
// joined with their events, newest registration first.
func (r *RegistrationRepository) ListActiveByVolunteer(ctx context.Context, volunteerID string) ([]model.RegistrationWithEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.event_id, r.volunteer_id, r.status, r.registered_at, `+prefixedEventColumns("e")+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.volunteer_id = $1 AND r.status IN ($2, $3)
		 ORDER BY r.registered_at DESC`,
		volunteerID, model.StatusConfirmed, model.StatusWaitlist,
	)
	if err != nil {
		return nil, fmt.Errorf("list volunteer registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.RegistrationWithEvent
	for rows.Next() {
		var reg model.RegistrationWithEvent
		e := &reg.Event
		if err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.VolunteerID, &reg.Status, &reg.RegisteredAt,
			&e.ID, &e.Title, &e.Description, &e.Category, &e.OrganizerID,
			&e.Location, &e.Address, &e.StartsAt, &e.EndsAt, &e.Capacity,
			&e.AllowWaitlist, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan volunteer registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ListConfirmedByOrganizerSince returns confirmed registrations across
// all of an organizer's events registered at or after the cutoff, as
// needed by the organizer registration-trend chart.
func (r *RegistrationRepository) ListConfirmedByOrganizerSince(ctx context.Context, organizerID string, since time.Time) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.event_id, r.volunteer_id, r.status, r.registered_at
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE e.organizer_id = $1 AND r.status = $2 AND r.registered_at >= $3
		 ORDER BY r.registered_at ASC`,
		organizerID, model.StatusConfirmed, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizer registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.VolunteerID, &reg.Status, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan organizer registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountConfirmedByOrganizer returns the total confirmed registrations
// across all of an organizer's events.
func (r *RegistrationRepository) CountConfirmedByOrganizer(ctx context.Context, organizerID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE e.organizer_id = $1 AND r.status = $2`,
		organizerID, model.StatusConfirmed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count organizer registrations: %w", err)
	}
	return count, nil
}

func prefixedEventColumns(alias string) string {
	return alias + `.id, ` + alias + `.title, ` + alias + `.description, ` + alias + `.category, ` +
		alias + `.organizer_id, ` + alias + `.location, ` + alias + `.address, ` + alias + `.starts_at, ` +
		alias + `.ends_at, ` + alias + `.capacity, ` + alias + `.allow_waitlist, ` + alias + `.is_active, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
