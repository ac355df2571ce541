package services

import (
	"strings"

	"github.com/kendall-kelly/field-service-admin/models"
)

// Panel identifies one of the two status-keyed console panels
type Panel string

const (
	PanelUsers   Panel = "engineers"
	PanelTickets Panel = "tickets"
)

// Status keys used in navigation paths
const (
	UserStatusKeyPending  = "pending"
	UserStatusKeyApproved = "approved"

	TicketStatusKeyOpen       = "open"
	TicketStatusKeyInProgress = "in-progress"
	TicketStatusKeyClosed     = "closed"
)

// LoginPath is where a missing or rejected session sends the admin
const LoginPath = "/login"

var ticketStatusLabels = map[string]string{
	TicketStatusKeyOpen:       models.TicketStatusOpen,
	TicketStatusKeyInProgress: models.TicketStatusInProgress,
	TicketStatusKeyClosed:     models.TicketStatusClosed,
}

// StatusKeys returns the accepted status keys for a panel in tab order
func (p Panel) StatusKeys() []string {
	switch p {
	case PanelUsers:
		return []string{UserStatusKeyPending, UserStatusKeyApproved}
	case PanelTickets:
		return []string{TicketStatusKeyOpen, TicketStatusKeyInProgress, TicketStatusKeyClosed}
	}
	return nil
}

// DefaultStatus returns the status key an invalid or missing segment redirects to
func (p Panel) DefaultStatus() string {
	if p == PanelTickets {
		return TicketStatusKeyOpen
	}
	return UserStatusKeyPending
}

// IsValidStatus reports whether key is one of the panel's status keys
func (p Panel) IsValidStatus(key string) bool {
	for _, k := range p.StatusKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Path returns the navigation path for a status key of this panel
func (p Panel) Path(key string) string {
	return "/admin/" + string(p) + "/" + key
}

// ResolveStatus maps a path segment to a status key. When the segment is
// missing or unknown it returns the panel default and redirect=true, and the
// caller must navigate there instead of fetching.
func (p Panel) ResolveStatus(segment string) (key string, redirect bool) {
	if p.IsValidStatus(segment) {
		return segment, false
	}
	return p.DefaultStatus(), true
}

// TicketStatusLabel maps a ticket status key to the label the remote API uses
func TicketStatusLabel(key string) (string, bool) {
	label, ok := ticketStatusLabels[key]
	return label, ok
}

// StatusKeyForLabel maps a display label to its lowercase, hyphenated status key
func StatusKeyForLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
}
