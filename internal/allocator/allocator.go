// Package allocator decides the status assigned to a new or reopened
// registration from the event's capacity and the live confirmed count.
//
// The decision is first-come-first-served: callers must evaluate it
// against a confirmed count read in the same transaction as the ledger
// write, otherwise two registrations racing for the last seat can both
// be confirmed.
package allocator

import "github.com/greenevents/server/internal/model"

// Decide returns the status for a registration attempt.
//
// A seat below capacity is confirmed. A full event puts the volunteer on
// the waitlist when the event allows one. When waitlisting is disabled
// the registration is still confirmed past capacity: the system never
// hard-rejects a volunteer, so capacity is a soft target in that case.
func Decide(capacity int, allowWaitlist bool, confirmed int) model.Status {
	if confirmed < capacity {
		return model.StatusConfirmed
	}
	if allowWaitlist {
		return model.StatusWaitlist
	}
	return model.StatusConfirmed
}
