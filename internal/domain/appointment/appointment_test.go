package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"scheduled to completed", StatusScheduled, StatusCompleted, true},
		{"scheduled to cancelled", StatusScheduled, StatusCancelled, true},
		{"scheduled to rescheduled", StatusScheduled, StatusRescheduled, true},
		{"rescheduled to scheduled", StatusRescheduled, StatusScheduled, true},
		{"rescheduled to completed", StatusRescheduled, StatusCompleted, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusScheduled, false},
		{"no self transition", StatusScheduled, StatusScheduled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Appointment{Status: tc.from}
			err := a.Transition(tc.to)
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, tc.to, a.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.Equal(t, tc.from, a.Status)
			}
		})
	}
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}
	assert.ErrorIs(t, a.Transition(Status("Teleported")), ErrInvalidStatus)
}

func TestMarkPaid(t *testing.T) {
	a := &Appointment{PaymentStatus: PaymentPending}
	assert.NoError(t, a.MarkPaid())
	assert.Equal(t, PaymentPaid, a.PaymentStatus)

	// Paying twice is a no-op, not an error.
	assert.NoError(t, a.MarkPaid())

	refunded := &Appointment{PaymentStatus: PaymentRefunded}
	assert.ErrorIs(t, refunded.MarkPaid(), ErrPaymentAlreadyRefunded)
	assert.Equal(t, PaymentRefunded, refunded.PaymentStatus)
}
