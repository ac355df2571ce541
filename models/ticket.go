package models

import (
	"time"
)

// Ticket statuses as labelled by the remote API
const (
	TicketStatusOpen       = "Open"
	TicketStatusInProgress = "In Progress"
	TicketStatusClosed     = "Closed"
)

// Payment statuses as labelled by the remote API
const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
	PaymentStatusFailed  = "Failed"
)

// Ticket represents a field service ticket owned by the remote API
type Ticket struct {
	TicketID          string            `json:"ticketId"`
	FieldSiteID       string            `json:"fieldSiteId"`
	CompanyName       string            `json:"companyName"`
	SiteAddress       string            `json:"siteAddress"`
	Coordinates       Coordinates       `json:"coordinates"`
	WorkDescription   string            `json:"workDescription"`
	Amount            float64           `json:"amount"`
	ExpertiseRequired []string          `json:"expertiseRequired"`
	AssignedEngineer  *AssignedEngineer `json:"assignedEngineer,omitempty"` // nullable, set once an engineer is assigned
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"paymentStatus"`
	PaymentDetails    *PaymentDetails   `json:"paymentDetails,omitempty"` // nullable, set after payment initiation
	CreatedAt         time.Time         `json:"createdAt"`
	ClosedAt          *time.Time        `json:"closedAt,omitempty"` // nullable, set when the ticket is closed
}

// Coordinates locates a field site. Both values are optional.
type Coordinates struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AssignedEngineer is the engineer summary embedded in a ticket
type AssignedEngineer struct {
	ID         string `json:"engineerId"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
}

// PaymentDetails correlates a ticket with a payment intent
type PaymentDetails struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentIntent is the client-held record of an initiated UPI payment
type PaymentIntent struct {
	PaymentIntentID string `json:"paymentIntentId"`
	UPIURL          string `json:"upiUrl"`
	TicketID        string `json:"ticketId,omitempty"`
}

// IsAssigned returns true if an engineer has been assigned
func (t Ticket) IsAssigned() bool {
	return t.AssignedEngineer != nil && t.AssignedEngineer.ID != ""
}

// CanAssign reports whether the ticket still accepts an engineer assignment
func (t Ticket) CanAssign() bool {
	return t.Status == TicketStatusOpen && !t.IsAssigned()
}

// CanClose reports whether the ticket can be moved to Closed
func (t Ticket) CanClose() bool {
	return t.Status != TicketStatusClosed
}

// CanInitiatePayment reports whether a payment can be requested for the ticket
func (t Ticket) CanInitiatePayment() bool {
	return t.Status == TicketStatusClosed && t.IsAssigned() && t.PaymentStatus == PaymentStatusPending
}

// PaymentIntentID returns the payment intent the ticket is waiting on, if any
func (t Ticket) PaymentIntentID() string {
	if t.PaymentDetails == nil {
		return ""
	}
	return t.PaymentDetails.PaymentIntentID
}
