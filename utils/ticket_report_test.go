package utils

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/kendall-kelly/field-service-admin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReportKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	key := BuildReportKey("in-progress", at)
	assert.Equal(t, "reports/tickets/in-progress/20240501T050000Z.csv", key)

	status, ok := ParseReportKey(key)
	assert.True(t, ok)
	assert.Equal(t, "in-progress", status)
}

func TestParseReportKeyRejectsForeignKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"wrong extension", "reports/tickets/open/20240501T050000Z.txt"},
		{"wrong prefix", "uploads/open/20240501T050000Z.csv"},
		{"missing status", "reports/tickets/20240501T050000Z.csv"},
		{"too deep", "reports/tickets/open/extra/20240501T050000Z.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseReportKey(tt.key)
			assert.False(t, ok)
		})
	}
}

func TestBuildTicketReport(t *testing.T) {
	lat := 12.5
	closed := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		{
			TicketID:          "T-1",
			CompanyName:       "Acme, Inc.",
			SiteAddress:       "12 Main St",
			Coordinates:       models.Coordinates{Latitude: &lat},
			WorkDescription:   "Install camera",
			Amount:            500,
			ExpertiseRequired: []string{"CCTV", "Networking"},
			AssignedEngineer:  &models.AssignedEngineer{ID: "e1", Name: "Ravi", EmployeeID: "EMP-1"},
			Status:            models.TicketStatusClosed,
			PaymentStatus:     models.PaymentStatusPaid,
			PaymentDetails:    &models.PaymentDetails{PaymentIntentID: "pi_1"},
			CreatedAt:         time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			ClosedAt:          &closed,
		},
		{
			TicketID:      "T-2",
			CompanyName:   "Globex",
			Status:        models.TicketStatusOpen,
			PaymentStatus: models.PaymentStatusPending,
		},
	}

	report, err := BuildTicketReport(tickets)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(report)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per ticket")

	assert.Equal(t, "ticket_id", rows[0][0])
	assert.Equal(t, []string{
		"T-1", "", "Acme, Inc.", "12 Main St", "12.5", "", "Install camera", "500.00",
		"CCTV;Networking", "Closed", "Paid", "pi_1", "Ravi", "EMP-1",
		"2024-05-01T09:00:00Z", "2024-05-02T09:00:00Z",
	}, rows[1])
	assert.Equal(t, "T-2", rows[2][0])
	assert.Equal(t, "", rows[2][12], "unassigned ticket has no engineer name")
	assert.Equal(t, "", rows[2][15], "open ticket has no closed_at")
}

func TestBuildTicketReportEmpty(t *testing.T) {
	report, err := BuildTicketReport(nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(report)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "an empty collection still carries the header")
}
