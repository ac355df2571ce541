package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/controllers"
	"github.com/kendall-kelly/field-service-admin/models"
	"github.com/kendall-kelly/field-service-admin/services"
	"github.com/kendall-kelly/field-service-admin/tests/fakeapi"
	"github.com/kendall-kelly/field-service-admin/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// TicketAcceptanceTestSuite walks a ticket through its whole life over HTTP
type TicketAcceptanceTestSuite struct {
	suite.Suite
	server  *httptest.Server
	api     *fakeapi.API
	console *services.Console
	reports *services.MockS3Service
}

// SetupTest starts a console server for each test
func (suite *TicketAcceptanceTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.api = fakeapi.New(suite.T())
	suite.api.SetEngineers("approved", models.User{ID: "e1", FullName: "Ravi Kumar", EmployeeID: "EMP-1", Status: models.UserStatusApproved})

	suite.console = testutil.NewConsole(suite.T(), suite.api, services.ConsoleOptions{PaymentPollInterval: 20 * time.Millisecond})

	suite.reports = services.NewMockS3Service()
	router := controllers.SetupRouter(suite.console, controllers.RouterOptions{
		Exporter: services.NewTicketExporter(suite.reports, suite.console.Tickets),
	})
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(suite.server.Close)
}

// makeRequest sends a JSON request to the console and decodes the envelope
func (suite *TicketAcceptanceTestSuite) makeRequest(method, path string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var response map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp.StatusCode, response
}

func (suite *TicketAcceptanceTestSuite) rows(path string) []map[string]interface{} {
	status, response := suite.makeRequest(http.MethodGet, path, nil)
	suite.Require().Equal(http.StatusOK, status, path)

	var out []map[string]interface{}
	for _, r := range response["data"].(map[string]interface{})["rows"].([]interface{}) {
		out = append(out, r.(map[string]interface{}))
	}
	return out
}

func (suite *TicketAcceptanceTestSuite) confirm() map[string]interface{} {
	status, response := suite.makeRequest(http.MethodPost, "/confirm", nil)
	suite.Require().Equal(http.StatusOK, status, response)
	return response["data"].(map[string]interface{})
}

// TestTicketLifecycle creates, assigns, closes and collects payment for a ticket
func (suite *TicketAcceptanceTestSuite) TestTicketLifecycle() {
	t := suite.T()

	status, _ := suite.makeRequest(http.MethodPost, "/login", map[string]string{"email": fakeapi.AdminEmail, "password": fakeapi.Password})
	suite.Require().Equal(http.StatusOK, status)

	// Create
	status, response := suite.makeRequest(http.MethodPost, "/admin/tickets", map[string]interface{}{
		"companyName":       "Acme Logistics",
		"siteAddress":       "12 Harbour Road",
		"latitude":          19.07,
		"longitude":         72.87,
		"workDescription":   "Replace core switch",
		"amount":            "2500",
		"expertiseRequired": []string{"Networking"},
	})
	suite.Require().Equal(http.StatusCreated, status, response)

	open := suite.rows("/admin/tickets/open")
	suite.Require().Len(open, 1)
	ticketID := open[0]["ticket"].(map[string]interface{})["ticketId"].(string)
	assert.Contains(t, open[0]["actions"], "assign")

	// Assign
	status, response = suite.makeRequest(http.MethodGet, "/admin/assignable-engineers", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(t, response["data"].(map[string]interface{})["engineers"], 1)

	status, response = suite.makeRequest(http.MethodPut, "/admin/tickets/"+ticketID+"/assign", map[string]string{"engineerId": "e1"})
	suite.Require().Equal(http.StatusOK, status, response)
	assert.Equal(t, "/admin/tickets/in-progress", response["data"].(map[string]interface{})["redirect"])

	inProgress := suite.rows("/admin/tickets/in-progress")
	suite.Require().Len(inProgress, 1)
	assert.Equal(t, []interface{}{"close", "details"}, inProgress[0]["actions"])

	// Close
	status, _ = suite.makeRequest(http.MethodPost, "/admin/tickets/"+ticketID+"/status", map[string]string{"status": models.TicketStatusClosed})
	suite.Require().Equal(http.StatusAccepted, status)
	result := suite.confirm()
	assert.Equal(t, "Ticket status updated.", result["message"])
	assert.Equal(t, "/admin/tickets/closed", result["redirect"])

	closed := suite.rows("/admin/tickets/closed")
	suite.Require().Len(closed, 1)
	assert.Equal(t, []interface{}{"initiate-payment", "details"}, closed[0]["actions"])

	// Export the closed tab
	status, response = suite.makeRequest(http.MethodPost, "/admin/exports/tickets/closed", nil)
	suite.Require().Equal(http.StatusCreated, status, response)
	key := response["data"].(map[string]interface{})["key"].(string)
	report, contentType, ok := suite.reports.Object(key)
	suite.Require().True(ok)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(report), "Acme Logistics")

	// Pay
	status, _ = suite.makeRequest(http.MethodPost, "/admin/tickets/"+ticketID+"/payment", nil)
	suite.Require().Equal(http.StatusAccepted, status)
	result = suite.confirm()
	payment := result["payment"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(payment["upiUrl"].(string), "upi://"))

	suite.api.SetPaymentStatus(ticketID, models.PaymentStatusPaid)
	assert.Eventually(t, func() bool {
		_, response := suite.makeRequest(http.MethodGet, "/payment", nil)
		return response["data"].(map[string]interface{})["state"] == services.WatcherIdle
	}, 2*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		rows := suite.rows("/admin/tickets/closed")
		return len(rows) == 1 && rows[0]["ticket"].(map[string]interface{})["paymentStatus"] == models.PaymentStatusPaid
	}, 2*time.Second, 20*time.Millisecond)

	_, response = suite.makeRequest(http.MethodGet, "/notices", nil)
	var messages []string
	for _, n := range response["data"].([]interface{}) {
		messages = append(messages, n.(map[string]interface{})["message"].(string))
	}
	assert.Equal(t, []string{
		"Ticket created successfully.",
		"Engineer assigned successfully.",
		"Ticket status updated.",
		"Payment initiated. Use a UPI app to complete the payment.",
		"Payment succeeded!",
	}, messages)
}

// TestAssignRejectsUnknownEngineer tests that only listed approved engineers can be picked
func (suite *TicketAcceptanceTestSuite) TestAssignRejectsUnknownEngineer() {
	suite.api.SetTickets(models.Ticket{TicketID: "T-050", Status: models.TicketStatusOpen})
	status, _ := suite.makeRequest(http.MethodPost, "/login", map[string]string{"email": fakeapi.AdminEmail, "password": fakeapi.Password})
	suite.Require().Equal(http.StatusOK, status)

	suite.makeRequest(http.MethodGet, "/admin/assignable-engineers", nil)
	status, response := suite.makeRequest(http.MethodPut, "/admin/tickets/T-050/assign", map[string]string{"engineerId": "someone-else"})

	assert.Equal(suite.T(), http.StatusBadRequest, status)
	assert.Equal(suite.T(), "Please select an approved engineer.", response["error"].(map[string]interface{})["message"])
	assert.Equal(suite.T(), 0, suite.api.Count(http.MethodPut, "/api/tickets/T-050/assign"))
}

// TestTicketAcceptanceTestSuite runs the acceptance test suite
func TestTicketAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(TicketAcceptanceTestSuite))
}
