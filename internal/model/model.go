// Package model defines the core domain types for the volunteer events system.
package model

import "time"

// Status is the lifecycle state of a registration.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusWaitlist  Status = "waitlist"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the registration currently occupies the
// (event, volunteer) slot. Cancelled rows are kept but inactive.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusWaitlist
}

// Category classifies an event.
type Category string

const (
	CategoryTreePlanting    Category = "tree_planting"
	CategoryBeachCleanup    Category = "beach_cleanup"
	CategoryRecycling       Category = "recycling"
	CategoryEWaste          Category = "e_waste"
	CategoryCommunityGarden Category = "community_garden"
	CategoryWorkshop        Category = "workshop"
	CategoryConservation    Category = "conservation"
	CategoryCleanup         Category = "cleanup"
)

var categoryNames = map[Category]string{
	CategoryTreePlanting:    "Tree Planting",
	CategoryBeachCleanup:    "Beach Cleanup",
	CategoryRecycling:       "Recycling Drive",
	CategoryEWaste:          "E-Waste Collection",
	CategoryCommunityGarden: "Community Garden",
	CategoryWorkshop:        "Sustainability Workshop",
	CategoryConservation:    "Nature Conservation",
	CategoryCleanup:         "General Cleanup",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// Display returns the human-readable category name, falling back to the
// raw value for unknown categories.
func (c Category) Display() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// Event represents a volunteer event published by an organizer.
type Event struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	OrganizerID   string     `json:"organizer_id"`
	Location      string     `json:"location"`
	Address       string     `json:"address"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Capacity      int        `json:"capacity"`
	AllowWaitlist bool       `json:"allow_waitlist"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SpotsRemaining returns the open confirmed seats given the current
// confirmed count, never negative.
func (e *Event) SpotsRemaining(confirmed int) int {
	if remaining := e.Capacity - confirmed; remaining > 0 {
		return remaining
	}
	return 0
}

// Registration is the single ledger row for an (event, volunteer) pair.
// Re-registration after cancellation reuses the row, so the id is stable
// across the whole lifecycle.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	VolunteerID  string    `json:"volunteer_id"`
	Status       Status    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationWithEvent joins a ledger row with its event, as needed by
// the volunteer dashboard aggregation.
type RegistrationWithEvent struct {
	Registration
	Event Event `json:"event"`
}

// VolunteerProfile holds per-volunteer data, including the cached
// total_events_attended counter refreshed when the dashboard is viewed.
type VolunteerProfile struct {
	UserID              string    `json:"user_id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	City                string    `json:"city"`
	TotalEventsAttended int       `json:"total_events_attended"`
	CreatedAt           time.Time `json:"created_at"`
}

// OrganizerProfile holds per-organization data.
type OrganizerProfile struct {
	UserID           string    `json:"user_id"`
	OrganizationName string    `json:"organization_name"`
	Email            string    `json:"email"`
	Website          string    `json:"website"`
	CreatedAt        time.Time `json:"created_at"`
}

// Actor is the resolved identity of the caller, determined once per
// request. Exactly one of Volunteer/Organizer is set for registered
// users; both nil means the user has no profile yet.
type Actor struct {
	UserID    string
	Volunteer *VolunteerProfile
	Organizer *OrganizerProfile
}

// IsVolunteer reports whether the actor has a volunteer profile.
func (a Actor) IsVolunteer() bool { return a.Volunteer != nil }

// IsOrganizer reports whether the actor has an organizer profile.
func (a Actor) IsOrganizer() bool { return a.Organizer != nil }

// IsRegistered reports whether the actor has any profile at all.
func (a Actor) IsRegistered() bool { return a.IsVolunteer() || a.IsOrganizer() }

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"required"`
	Category      Category   `json:"category" validate:"required"`
	Location      string     `json:"location" validate:"required,max=300"`
	Address       string     `json:"address"`
	StartsAt      time.Time  `json:"starts_at" validate:"required"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Capacity      int        `json:"capacity" validate:"required,gt=0"`
	AllowWaitlist *bool      `json:"allow_waitlist,omitempty"`
}

// UpdateEventRequest is the payload for editing an event. The handler
// applies the whole document.
type UpdateEventRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"required"`
	Category      Category   `json:"category" validate:"required"`
	Location      string     `json:"location" validate:"required,max=300"`
	Address       string     `json:"address"`
	StartsAt      time.Time  `json:"starts_at" validate:"required"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Capacity      int        `json:"capacity" validate:"required,gt=0"`
	AllowWaitlist bool       `json:"allow_waitlist"`
	IsActive      bool       `json:"is_active"`
}

// EventDetail is the event page view: the event plus live occupancy and,
// when the caller is a registered volunteer, their own ledger row.
type EventDetail struct {
	Event          Event         `json:"event"`
	ConfirmedCount int           `json:"confirmed_count"`
	SpotsRemaining int           `json:"spots_remaining"`
	Registration   *Registration `json:"registration,omitempty"`
}

// EventRegistrations groups an event's ledger rows for the organizer view.
type EventRegistrations struct {
	Event     Event          `json:"event"`
	Confirmed []Registration `json:"confirmed"`
	Waitlist  []Registration `json:"waitlist"`
	All       []Registration `json:"all"`
}

// LeaderboardEntry is one row of the volunteer leaderboard.
type LeaderboardEntry struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	EventsAttended int    `json:"events_attended"`
	Points         int    `json:"points"`
}

// VolunteerAnalytics is the dashboard snapshot for a volunteer, computed
// fresh from the ledger on every request.
type VolunteerAnalytics struct {
	TotalRegistered      int                `json:"total_events_registered"`
	UpcomingEvents       int                `json:"upcoming_events"`
	PastEvents           int                `json:"past_events"`
	TreesPlanted         int                `json:"trees_planted"`
	CO2SavedKg           int                `json:"co2_saved"`
	WasteCollectedKg     int                `json:"waste_collected"`
	HoursVolunteered     int                `json:"hours_volunteered"`
	AchievementLevel     string             `json:"achievement_level"`
	LevelProgress        int                `json:"level_progress"`
	TotalPoints          int                `json:"total_points"`
	StreakDays           int                `json:"streak_days"`
	ActivityMonths       []string           `json:"activity_months"`
	ActivityCounts       []int              `json:"activity_counts"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard"`
	LeaderboardRank      int                `json:"leaderboard_rank"`
	UpcomingPercentage   int                `json:"upcoming_percentage"`
	CompletionPercentage int                `json:"completion_percentage"`
}

// CategorySlice is one slice of the organizer category distribution.
type CategorySlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// OrganizerAnalytics is the dashboard snapshot for an organizer.
type OrganizerAnalytics struct {
	TotalEvents          int             `json:"total_events"`
	UpcomingEvents       int             `json:"upcoming_events"`
	PastEvents           int             `json:"past_events"`
	UpcomingPercentage   int             `json:"upcoming_percentage"`
	CompletionPercentage int             `json:"completion_percentage"`
	TotalRegistrations   int             `json:"total_registrations"`
	RegistrationMonths   []string        `json:"registration_months"`
	RegistrationCounts   []int           `json:"registration_counts"`
	Categories           []CategorySlice `json:"categories"`
}

// RegisterResponse summarises the outcome of a registration attempt.
type RegisterResponse struct {
	RegistrationID string `json:"registration_id"`
	Status         Status `json:"status"`
}

// CreateVolunteerProfileRequest creates the volunteer half of an identity.
type CreateVolunteerProfileRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	City  string `json:"city" validate:"max=100"`
}

// CreateOrganizerProfileRequest creates the organizer half of an identity.
type CreateOrganizerProfileRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,max=200"`
	Email            string `json:"email" validate:"required,email"`
	Website          string `json:"website" validate:"omitempty,url"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
