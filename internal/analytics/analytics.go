// Package analytics derives dashboard snapshots from ledger state. All
// aggregation is pure and computed fresh per request; nothing here
// touches storage.
package analytics

import (
	"sort"
	"time"

	"github.com/greenevents/server/internal/model"
)

// Fixed per-event impact multipliers shown on the volunteer dashboard.
// These are presentational estimates, not measurements.
const (
	treesPerEvent   = 5
	co2KgPerEvent   = 25
	wasteKgPerEvent = 15
	hoursPerEvent   = 4
	pointsPerEvent  = 10
)

// streakWindow bounds how far back a confirmed registration still counts
// as "recent activity" for the streak display.
const streakWindow = 30 * 24 * time.Hour

// histogramWindow is the lookback for the 6-month activity charts.
const histogramWindow = 180 * 24 * time.Hour

// Achievement maps a past-event count to a gamification tier and the
// integer-truncated progress (0-100) towards the next tier. Thresholds
// sit at 5/10/25/50 past events.
func Achievement(pastEvents int) (level string, progress int) {
	switch {
	case pastEvents >= 50:
		return "Legend", 100
	case pastEvents >= 25:
		return "Expert", (pastEvents - 25) * 100 / 25
	case pastEvents >= 10:
		return "Advanced", (pastEvents - 10) * 100 / 15
	case pastEvents >= 5:
		return "Intermediate", (pastEvents - 5) * 100 / 5
	default:
		return "Beginner", pastEvents * 100 / 5
	}
}

// VolunteerSnapshot computes the volunteer dashboard from the user's
// active (confirmed or waitlisted) registrations. The leaderboard and
// rank are read separately by the caller since they span all profiles.
func VolunteerSnapshot(now time.Time, regs []model.RegistrationWithEvent, leaderboard []model.VolunteerProfile, rank int) model.VolunteerAnalytics {
	var total, upcoming, past int
	for _, reg := range regs {
		if reg.Status != model.StatusConfirmed {
			continue
		}
		total++
		if reg.Event.StartsAt.Before(now) {
			past++
		} else {
			upcoming++
		}
	}

	level, progress := Achievement(past)

	snapshot := model.VolunteerAnalytics{
		TotalRegistered:      total,
		UpcomingEvents:       upcoming,
		PastEvents:           past,
		TreesPlanted:         past * treesPerEvent,
		CO2SavedKg:           past * co2KgPerEvent,
		WasteCollectedKg:     past * wasteKgPerEvent,
		HoursVolunteered:     past * hoursPerEvent,
		AchievementLevel:     level,
		LevelProgress:        progress,
		TotalPoints:          past * pointsPerEvent,
		StreakDays:           streakDays(now, regs),
		LeaderboardRank:      rank,
		UpcomingPercentage:   upcoming * 100 / max(total, 1),
		CompletionPercentage: past * 100 / max(total, 1),
	}

	snapshot.ActivityMonths, snapshot.ActivityCounts = monthlyHistogram(now, regs, func(reg model.RegistrationWithEvent) time.Time {
		// Volunteer activity buckets by the event's date.
		return reg.Event.StartsAt
	})

	snapshot.Leaderboard = make([]model.LeaderboardEntry, 0, len(leaderboard))
	for _, profile := range leaderboard {
		snapshot.Leaderboard = append(snapshot.Leaderboard, model.LeaderboardEntry{
			UserID:         profile.UserID,
			Name:           profile.Name,
			EventsAttended: profile.TotalEventsAttended,
			Points:         profile.TotalEventsAttended * pointsPerEvent,
		})
	}

	return snapshot
}

// streakDays returns the days elapsed since the most recent confirmed
// registration inside the streak window, or 0 when there is none. This
// measures registration recency, not event attendance.
func streakDays(now time.Time, regs []model.RegistrationWithEvent) int {
	cutoff := now.Add(-streakWindow)
	var latest time.Time
	for _, reg := range regs {
		if reg.Status != model.StatusConfirmed || reg.RegisteredAt.Before(cutoff) {
			continue
		}
		if reg.RegisteredAt.After(latest) {
			latest = reg.RegisteredAt
		}
	}
	if latest.IsZero() {
		return 0
	}
	days := int(now.Sub(latest).Hours() / 24)
	if days > 30 {
		return 0
	}
	return days
}

// monthlyHistogram buckets confirmed registrations into six trailing
// month labels anchored at now, now-30d, ... now-150d. A registration
// counts towards a bucket when the bucketing timestamp falls in the same
// calendar month and year as the anchor, and within the lookback window.
func monthlyHistogram(now time.Time, regs []model.RegistrationWithEvent, bucketBy func(model.RegistrationWithEvent) time.Time) ([]string, []int) {
	windowStart := now.Add(-histogramWindow)

	months := make([]string, 0, 6)
	counts := make([]int, 0, 6)
	for i := 5; i >= 0; i-- {
		anchor := now.AddDate(0, 0, -30*i)
		months = append(months, anchor.Format("Jan"))

		count := 0
		for _, reg := range regs {
			if reg.Status != model.StatusConfirmed {
				continue
			}
			ts := bucketBy(reg)
			if ts.Before(windowStart) || ts.After(now) {
				continue
			}
			if ts.Month() == anchor.Month() && ts.Year() == anchor.Year() {
				count++
			}
		}
		counts = append(counts, count)
	}
	return months, counts
}

// OrganizerSnapshot computes the organizer dashboard from the
// organizer's events and the confirmed registrations they received over
// the histogram window. Unlike the volunteer chart, registrations bucket
// by when the volunteer registered, not by the event's date.
func OrganizerSnapshot(now time.Time, events []model.Event, recentConfirmed []model.Registration, totalRegistrations int) model.OrganizerAnalytics {
	var upcoming, past int
	for _, event := range events {
		if event.StartsAt.Before(now) {
			past++
		} else {
			upcoming++
		}
	}

	total := len(events)
	snapshot := model.OrganizerAnalytics{
		TotalEvents:        total,
		UpcomingEvents:     upcoming,
		PastEvents:         past,
		TotalRegistrations: totalRegistrations,
	}
	if total > 0 {
		snapshot.UpcomingPercentage = upcoming * 100 / total
		snapshot.CompletionPercentage = past * 100 / total
	}

	joined := make([]model.RegistrationWithEvent, 0, len(recentConfirmed))
	for _, reg := range recentConfirmed {
		joined = append(joined, model.RegistrationWithEvent{Registration: reg})
	}
	snapshot.RegistrationMonths, snapshot.RegistrationCounts = monthlyHistogram(now, joined, func(reg model.RegistrationWithEvent) time.Time {
		return reg.RegisteredAt
	})

	snapshot.Categories = categoryDistribution(events)
	return snapshot
}

// categoryDistribution counts events per category, sorted by count
// descending with the category key as a deterministic tie-break.
func categoryDistribution(events []model.Event) []model.CategorySlice {
	counts := make(map[model.Category]int)
	for _, event := range events {
		counts[event.Category]++
	}

	categories := make([]model.Category, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})

	slices := make([]model.CategorySlice, 0, len(categories))
	for _, category := range categories {
		slices = append(slices, model.CategorySlice{
			Label: category.Display(),
			Count: counts[category],
		})
	}
	return slices
}
