package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kendall-kelly/field-service-admin/models"
)

const (
	// ReportContentType is the content type of exported ticket reports
	ReportContentType = "text/csv"
	// ReportPrefix is the key prefix every ticket report is stored under
	ReportPrefix = "reports/tickets"
)

var reportHeader = []string{
	"ticket_id",
	"field_site_id",
	"company_name",
	"site_address",
	"latitude",
	"longitude",
	"work_description",
	"amount",
	"expertise_required",
	"status",
	"payment_status",
	"payment_intent_id",
	"engineer_name",
	"engineer_employee_id",
	"created_at",
	"closed_at",
}

// BuildReportKey constructs the storage key for a ticket report
func BuildReportKey(statusKey string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.csv", ReportPrefix, statusKey, at.UTC().Format("20060102T150405Z"))
}

// ParseReportKey extracts the status key from a report key
func ParseReportKey(key string) (statusKey string, ok bool) {
	if path.Ext(key) != ".csv" || !strings.HasPrefix(key, ReportPrefix+"/") {
		return "", false
	}
	parts := strings.Split(strings.TrimPrefix(key, ReportPrefix+"/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

// BuildTicketReport renders tickets as CSV, one row per ticket in the given order
func BuildTicketReport(tickets []models.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportHeader); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}
	for _, t := range tickets {
		if err := w.Write(reportRow(t)); err != nil {
			return nil, fmt.Errorf("failed to write report row for ticket %s: %w", t.TicketID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	return buf.Bytes(), nil
}

func reportRow(t models.Ticket) []string {
	var engineerName, employeeID string
	if t.AssignedEngineer != nil {
		engineerName = t.AssignedEngineer.Name
		employeeID = t.AssignedEngineer.EmployeeID
	}

	closedAt := ""
	if t.ClosedAt != nil {
		closedAt = t.ClosedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		t.TicketID,
		t.FieldSiteID,
		t.CompanyName,
		t.SiteAddress,
		formatOptional(t.Coordinates.Latitude),
		formatOptional(t.Coordinates.Longitude),
		t.WorkDescription,
		strconv.FormatFloat(t.Amount, 'f', 2, 64),
		strings.Join(t.ExpertiseRequired, ";"),
		t.Status,
		t.PaymentStatus,
		t.PaymentIntentID(),
		engineerName,
		employeeID,
		t.CreatedAt.UTC().Format(time.RFC3339),
		closedAt,
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
