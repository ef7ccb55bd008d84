package notify

import (
	"fmt"
	"strings"

	"github.com/greenevents/server/internal/model"
)

// TicketEmail composes the confirmation email sent to the volunteer
// after a registration attempt. The email doubles as the event ticket.
func TicketEmail(event *model.Event, reg *model.Registration, volunteer *model.VolunteerProfile) (subject, body string) {
	subject = fmt.Sprintf("Your Event Ticket - %s", event.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", volunteer.Name)
	if reg.Status == model.StatusConfirmed {
		b.WriteString("Your registration has been confirmed.\n\n")
	} else {
		b.WriteString("The event is currently full, so you have been added to the waitlist.\n\n")
	}
	b.WriteString("EVENT DETAILS\n")
	fmt.Fprintf(&b, "Event: %s\n", event.Title)
	fmt.Fprintf(&b, "Date: %s\n", event.StartsAt.Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "Location: %s\n", event.Location)
	fmt.Fprintf(&b, "Category: %s\n\n", event.Category.Display())
	fmt.Fprintf(&b, "Registration status: %s\n", strings.ToUpper(string(reg.Status)))
	fmt.Fprintf(&b, "Registration ID: %s\n\n", reg.ID)
	b.WriteString("Please keep this email as your event ticket.\n")
	b.WriteString("Need to cancel? Manage your registrations from your profile.\n\n")
	b.WriteString("Best regards,\nThe GreenEvents Team\n")
	return subject, b.String()
}

// OrganizerAlertEmail composes the notification sent to the event's
// organizer when a volunteer registers.
func OrganizerAlertEmail(event *model.Event, reg *model.Registration, volunteer *model.VolunteerProfile, organizer *model.OrganizerProfile, confirmed int) (subject, body string) {
	subject = fmt.Sprintf("New Registration for %s", event.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", organizer.OrganizationName)
	b.WriteString("A new volunteer has registered for your event.\n\n")
	fmt.Fprintf(&b, "Event: %s\n", event.Title)
	fmt.Fprintf(&b, "Date: %s\n\n", event.StartsAt.Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "Volunteer: %s (%s)\n", volunteer.Name, volunteer.Email)
	fmt.Fprintf(&b, "Status: %s\n\n", strings.ToUpper(string(reg.Status)))
	fmt.Fprintf(&b, "Total confirmed: %d\n", confirmed)
	fmt.Fprintf(&b, "Capacity: %d\n", event.Capacity)
	fmt.Fprintf(&b, "Remaining spots: %d\n\n", event.SpotsRemaining(confirmed))
	b.WriteString("Best regards,\nThe GreenEvents Team\n")
	return subject, b.String()
}
