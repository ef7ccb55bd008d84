package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenevents/server/internal/model"
)

// ProfileRepository handles persistence for volunteer and organizer
// profiles.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateVolunteer inserts a volunteer profile, or ErrAlreadyExists when
// the user already has one.
func (r *ProfileRepository) CreateVolunteer(ctx context.Context, profile *model.VolunteerProfile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO volunteer_profiles (user_id, name, email, city, total_events_attended, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		profile.UserID, profile.Name, profile.Email, profile.City,
		profile.TotalEventsAttended, profile.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert volunteer profile: %w", err)
	}
	return nil
}

// CreateOrganizer inserts an organizer profile, or ErrAlreadyExists when
// the user already has one.
func (r *ProfileRepository) CreateOrganizer(ctx context.Context, profile *model.OrganizerProfile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizer_profiles (user_id, organization_name, email, website, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.UserID, profile.OrganizationName, profile.Email, profile.Website, profile.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert organizer profile: %w", err)
	}
	return nil
}

// GetVolunteer returns a volunteer profile or ErrNotFound.
func (r *ProfileRepository) GetVolunteer(ctx context.Context, userID string) (*model.VolunteerProfile, error) {
	var p model.VolunteerProfile
	err := r.db.QueryRow(ctx,
		`SELECT user_id, name, email, city, total_events_attended, created_at
		 FROM volunteer_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Email, &p.City, &p.TotalEventsAttended, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get volunteer profile: %w", err)
	}
	return &p, nil
}

// GetOrganizer returns an organizer profile or ErrNotFound.
func (r *ProfileRepository) GetOrganizer(ctx context.Context, userID string) (*model.OrganizerProfile, error) {
	var p model.OrganizerProfile
	err := r.db.QueryRow(ctx,
		`SELECT user_id, organization_name, email, website, created_at
		 FROM organizer_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.OrganizationName, &p.Email, &p.Website, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get organizer profile: %w", err)
	}
	return &p, nil
}

// SetTotalEventsAttended refreshes the cached dashboard counter. The
// write is eventually consistent with the ledger and is only issued when
// the volunteer views their dashboard.
func (r *ProfileRepository) SetTotalEventsAttended(ctx context.Context, userID string, total int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE volunteer_profiles SET total_events_attended = $2 WHERE user_id = $1`,
		userID, total,
	)
	if err != nil {
		return fmt.Errorf("update total events attended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TopVolunteers returns the leaderboard: profiles ordered by attended
// count descending, with user id as a deterministic tie-break.
func (r *ProfileRepository) TopVolunteers(ctx context.Context, limit int) ([]model.VolunteerProfile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, name, email, city, total_events_attended, created_at
		 FROM volunteer_profiles
		 ORDER BY total_events_attended DESC, user_id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list top volunteers: %w", err)
	}
	defer rows.Close()

	var profiles []model.VolunteerProfile
	for rows.Next() {
		var p model.VolunteerProfile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.City, &p.TotalEventsAttended, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan volunteer profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CountAttendedMoreThan returns how many volunteers have strictly more
// attended events than the given count. Rank is this plus one.
func (r *ProfileRepository) CountAttendedMoreThan(ctx context.Context, total int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM volunteer_profiles WHERE total_events_attended > $1`,
		total,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count volunteers ranked above: %w", err)
	}
	return count, nil
}
