package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultTicketExpertise is the expertise offered when none is configured
var DefaultTicketExpertise = []string{"Networking", "CCTV"}

// FormValue accepts a JSON string or a bare JSON number, as submitted by a form
type FormValue string

// UnmarshalJSON keeps the raw text of numbers and the contents of strings
func (v *FormValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = FormValue(s)
		return nil
	}
	*v = FormValue(raw)
	return nil
}

// TicketForm is the unvalidated ticket creation form
type TicketForm struct {
	CompanyName       string    `json:"companyName"`
	SiteAddress       string    `json:"siteAddress"`
	Latitude          FormValue `json:"latitude"`
	Longitude         FormValue `json:"longitude"`
	WorkDescription   string    `json:"workDescription"`
	Amount            FormValue `json:"amount"`
	ExpertiseRequired []string  `json:"expertiseRequired"`
}

// TicketDraft is a validated ticket ready to be posted to the remote API
type TicketDraft struct {
	CompanyName       string            `json:"companyName"`
	SiteAddress       string            `json:"siteAddress"`
	Coordinates       *DraftCoordinates `json:"coordinates,omitempty"`
	WorkDescription   string            `json:"workDescription"`
	Amount            float64           `json:"amount"`
	ExpertiseRequired []string          `json:"expertiseRequired"`
}

// DraftCoordinates holds whichever coordinates were supplied
type DraftCoordinates struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// TicketDraftValidator checks ticket forms before any network call
type TicketDraftValidator struct {
	expertise []string
	allowed   map[string]bool
}

// NewTicketDraftValidator creates a validator accepting the given expertise values
func NewTicketDraftValidator(expertise []string) *TicketDraftValidator {
	if len(expertise) == 0 {
		expertise = DefaultTicketExpertise
	}
	allowed := make(map[string]bool, len(expertise))
	for _, e := range expertise {
		allowed[e] = true
	}
	return &TicketDraftValidator{expertise: append([]string(nil), expertise...), allowed: allowed}
}

// Expertise returns the selectable expertise values in display order
func (v *TicketDraftValidator) Expertise() []string {
	return append([]string(nil), v.expertise...)
}

// Validate applies the rules in order and returns the first failure
func (v *TicketDraftValidator) Validate(form TicketForm) (TicketDraft, error) {
	// text fields are posted exactly as entered
	draft := TicketDraft{
		CompanyName:     form.CompanyName,
		SiteAddress:     form.SiteAddress,
		WorkDescription: form.WorkDescription,
	}

	if draft.CompanyName == "" {
		return TicketDraft{}, &ValidationError{Field: "companyName", Message: "Company Name is required"}
	}
	if draft.SiteAddress == "" {
		return TicketDraft{}, &ValidationError{Field: "siteAddress", Message: "Site Address is required"}
	}

	lat, err := optionalNumber(form.Latitude, "latitude", "Latitude must be a number")
	if err != nil {
		return TicketDraft{}, err
	}
	lng, err := optionalNumber(form.Longitude, "longitude", "Longitude must be a number")
	if err != nil {
		return TicketDraft{}, err
	}
	if lat != nil || lng != nil {
		draft.Coordinates = &DraftCoordinates{Latitude: lat, Longitude: lng}
	}

	if draft.WorkDescription == "" {
		return TicketDraft{}, &ValidationError{Field: "workDescription", Message: "Work Description is required"}
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(string(form.Amount)), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return TicketDraft{}, &ValidationError{Field: "amount", Message: "Valid Amount is required"}
	}
	draft.Amount = amount

	if len(form.ExpertiseRequired) == 0 {
		return TicketDraft{}, &ValidationError{Field: "expertiseRequired", Message: "At least one expertise is required"}
	}
	seen := make(map[string]bool, len(form.ExpertiseRequired))
	for _, e := range form.ExpertiseRequired {
		if !v.allowed[e] {
			return TicketDraft{}, &ValidationError{Field: "expertiseRequired", Message: "Unknown expertise: " + e}
		}
		if !seen[e] {
			seen[e] = true
			draft.ExpertiseRequired = append(draft.ExpertiseRequired, e)
		}
	}

	return draft, nil
}

func optionalNumber(value FormValue, field, message string) (*float64, error) {
	raw := strings.TrimSpace(string(value))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, &ValidationError{Field: field, Message: message}
	}
	return &n, nil
}
