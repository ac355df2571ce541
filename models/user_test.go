package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSettingTableName(t *testing.T) {
	setting := ConsoleSetting{}
	assert.Equal(t, "console_settings", setting.TableName(), "Table name should be 'console_settings'")
}

func TestUserDecodesRemotePayload(t *testing.T) {
	payload := `{
		"_id": "u1",
		"fullName": "Asha Rao",
		"email": "asha@example.com",
		"phoneNumber": "9999999999",
		"employeeId": "EMP-7",
		"role": "Engineer",
		"status": "Pending",
		"expertise": ["CCTV"],
		"serviceAreas": [{"name": "North"}, {"name": "East"}],
		"documents": {"aadhaar": {"number": "1234"}}
	}`

	var user User
	require.NoError(t, json.Unmarshal([]byte(payload), &user))

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Asha Rao", user.FullName)
	assert.True(t, user.IsPending())
	assert.Nil(t, user.UPIID)
	assert.Equal(t, []string{"North", "East"}, user.ServiceAreaNames())
	require.NotNil(t, user.Documents.Aadhaar)
	assert.Equal(t, "1234", user.Documents.Aadhaar.Number)
	assert.Nil(t, user.Documents.License)
}

func TestUserStatusValues(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		pending bool
	}{
		{"pending application", UserStatusPending, true},
		{"approved engineer", UserStatusApproved, false},
		{"rejected application", UserStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Status: tt.status}
			assert.Equal(t, tt.pending, user.IsPending())
		})
	}
}
