package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() TicketForm {
	return TicketForm{
		CompanyName:       "Acme",
		SiteAddress:       "1 Main St",
		WorkDescription:   "Install cameras",
		Amount:            "1200.50",
		ExpertiseRequired: []string{"CCTV"},
	}
}

func TestValidateTicketDraft(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TicketForm)
		field   string
		message string
	}{
		{"missing company", func(f *TicketForm) { f.CompanyName = "" }, "companyName", "Company Name is required"},
		{"missing address", func(f *TicketForm) { f.SiteAddress = "" }, "siteAddress", "Site Address is required"},
		{"bad latitude", func(f *TicketForm) { f.Latitude = "north" }, "latitude", "Latitude must be a number"},
		{"bad longitude", func(f *TicketForm) { f.Longitude = "east" }, "longitude", "Longitude must be a number"},
		{"missing description", func(f *TicketForm) { f.WorkDescription = "" }, "workDescription", "Work Description is required"},
		{"zero amount", func(f *TicketForm) { f.Amount = "0" }, "amount", "Valid Amount is required"},
		{"negative amount", func(f *TicketForm) { f.Amount = "-5" }, "amount", "Valid Amount is required"},
		{"text amount", func(f *TicketForm) { f.Amount = "a lot" }, "amount", "Valid Amount is required"},
		{"empty amount", func(f *TicketForm) { f.Amount = "" }, "amount", "Valid Amount is required"},
		{"no expertise", func(f *TicketForm) { f.ExpertiseRequired = nil }, "expertiseRequired", "At least one expertise is required"},
		{"unknown expertise", func(f *TicketForm) { f.ExpertiseRequired = []string{"Plumbing"} }, "expertiseRequired", "Unknown expertise: Plumbing"},
	}

	validator := NewTicketDraftValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, err := validator.Validate(form)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Equal(t, tt.message, validationErr.Message)
		})
	}
}

func TestValidateTicketDraftFirstFailureWins(t *testing.T) {
	_, err := NewTicketDraftValidator(nil).Validate(TicketForm{Amount: "0"})

	assert.EqualError(t, err, "Company Name is required")
}

func TestValidateTicketDraftBuildsPayload(t *testing.T) {
	form := validForm()
	form.CompanyName = "  Acme  "
	form.Latitude = "12.97"
	form.ExpertiseRequired = []string{"CCTV", "Networking", "CCTV"}

	draft, err := NewTicketDraftValidator(nil).Validate(form)
	require.NoError(t, err)

	payload, err := json.Marshal(draft)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"companyName": "  Acme  ",
		"siteAddress": "1 Main St",
		"coordinates": {"latitude": 12.97},
		"workDescription": "Install cameras",
		"amount": 1200.5,
		"expertiseRequired": ["CCTV", "Networking"]
	}`, string(payload))
}

func TestValidateTicketDraftAcceptsBlankText(t *testing.T) {
	form := validForm()
	form.SiteAddress = " "
	form.WorkDescription = "\t"

	draft, err := NewTicketDraftValidator(nil).Validate(form)

	require.NoError(t, err)
	assert.Equal(t, " ", draft.SiteAddress)
	assert.Equal(t, "\t", draft.WorkDescription)
}

func TestValidateTicketDraftOmitsEmptyCoordinates(t *testing.T) {
	draft, err := NewTicketDraftValidator(nil).Validate(validForm())
	require.NoError(t, err)

	payload, err := json.Marshal(draft)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "coordinates")
}

func TestTicketDraftValidatorCustomExpertise(t *testing.T) {
	validator := NewTicketDraftValidator([]string{"Fiber", "Solar"})
	assert.Equal(t, []string{"Fiber", "Solar"}, validator.Expertise())

	form := validForm()
	form.ExpertiseRequired = []string{"Solar"}
	_, err := validator.Validate(form)
	assert.NoError(t, err)

	form.ExpertiseRequired = []string{"CCTV"}
	_, err = validator.Validate(form)
	assert.EqualError(t, err, "Unknown expertise: CCTV")
}

func TestFormValueAcceptsStringsAndNumbers(t *testing.T) {
	var form TicketForm
	err := json.Unmarshal([]byte(`{"amount": 1500, "latitude": "12.5", "longitude": null}`), &form)
	require.NoError(t, err)

	assert.Equal(t, FormValue("1500"), form.Amount)
	assert.Equal(t, FormValue("12.5"), form.Latitude)
	assert.Equal(t, FormValue(""), form.Longitude)
}
