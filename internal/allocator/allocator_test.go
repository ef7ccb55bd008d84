package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenevents/server/internal/model"
)

func TestDecide_SeatAvailable(t *testing.T) {
	status := Decide(10, true, 9)
	assert.Equal(t, model.StatusConfirmed, status)
}

func TestDecide_FullWithWaitlist(t *testing.T) {
	status := Decide(10, true, 10)
	assert.Equal(t, model.StatusWaitlist, status)
}

func TestDecide_FullWithoutWaitlist(t *testing.T) {
	// Capacity is not a hard cap without a waitlist: volunteers are
	// still confirmed rather than rejected.
	status := Decide(10, false, 10)
	assert.Equal(t, model.StatusConfirmed, status)

	status = Decide(10, false, 15)
	assert.Equal(t, model.StatusConfirmed, status)
}

func TestDecide_SequentialFill(t *testing.T) {
	// Registering capacity+2 volunteers in order yields exactly
	// capacity confirmed and the rest waitlisted.
	const capacity = 3

	confirmed := 0
	var statuses []model.Status
	for i := 0; i < capacity+2; i++ {
		s := Decide(capacity, true, confirmed)
		if s == model.StatusConfirmed {
			confirmed++
		}
		statuses = append(statuses, s)
	}

	assert.Equal(t, []model.Status{
		model.StatusConfirmed,
		model.StatusConfirmed,
		model.StatusConfirmed,
		model.StatusWaitlist,
		model.StatusWaitlist,
	}, statuses)
	assert.Equal(t, capacity, confirmed)
}

func TestDecide_OverCapacityWaitlists(t *testing.T) {
	// Confirmed count can exceed capacity when waitlisting was disabled
	// at some point; further attempts with a waitlist still waitlist.
	status := Decide(10, true, 12)
	assert.Equal(t, model.StatusWaitlist, status)
}
