package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketActionAvailability(t *testing.T) {
	engineer := &AssignedEngineer{ID: "e1", Name: "Ravi", EmployeeID: "EMP-1"}

	tests := []struct {
		name       string
		ticket     Ticket
		canAssign  bool
		canClose   bool
		canPayment bool
	}{
		{
			name:      "open and unassigned",
			ticket:    Ticket{Status: TicketStatusOpen, PaymentStatus: PaymentStatusPending},
			canAssign: true,
			canClose:  true,
		},
		{
			name:     "in progress with engineer",
			ticket:   Ticket{Status: TicketStatusInProgress, AssignedEngineer: engineer, PaymentStatus: PaymentStatusPending},
			canClose: true,
		},
		{
			name:       "closed with engineer and pending payment",
			ticket:     Ticket{Status: TicketStatusClosed, AssignedEngineer: engineer, PaymentStatus: PaymentStatusPending},
			canPayment: true,
		},
		{
			name:   "closed and already paid",
			ticket: Ticket{Status: TicketStatusClosed, AssignedEngineer: engineer, PaymentStatus: PaymentStatusPaid},
		},
		{
			name:   "closed without engineer",
			ticket: Ticket{Status: TicketStatusClosed, PaymentStatus: PaymentStatusPending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canAssign, tt.ticket.CanAssign(), "CanAssign")
			assert.Equal(t, tt.canClose, tt.ticket.CanClose(), "CanClose")
			assert.Equal(t, tt.canPayment, tt.ticket.CanInitiatePayment(), "CanInitiatePayment")
		})
	}
}

func TestTicketDecodesRemotePayload(t *testing.T) {
	payload := `{
		"ticketId": "T-100",
		"fieldSiteId": "FS-9",
		"companyName": "Acme",
		"siteAddress": "12 Main St",
		"coordinates": {"latitude": 12.5, "longitude": 77.25},
		"workDescription": "Install camera",
		"amount": 500,
		"expertiseRequired": ["CCTV"],
		"assignedEngineer": {"engineerId": "e1", "name": "Ravi", "employeeId": "EMP-1"},
		"status": "Closed",
		"paymentStatus": "Pending",
		"paymentDetails": {"paymentIntentId": "pi_1"},
		"createdAt": "2024-05-01T10:00:00Z",
		"closedAt": "2024-05-02T10:00:00Z"
	}`

	var ticket Ticket
	require.NoError(t, json.Unmarshal([]byte(payload), &ticket))

	assert.Equal(t, "T-100", ticket.TicketID)
	assert.Equal(t, 500.0, ticket.Amount)
	require.NotNil(t, ticket.Coordinates.Latitude)
	assert.Equal(t, 12.5, *ticket.Coordinates.Latitude)
	assert.True(t, ticket.IsAssigned())
	assert.Equal(t, "pi_1", ticket.PaymentIntentID())
	require.NotNil(t, ticket.ClosedAt)
}

func TestTicketPaymentIntentIDWithoutDetails(t *testing.T) {
	ticket := Ticket{TicketID: "T-1"}
	assert.Equal(t, "", ticket.PaymentIntentID())
}
