package models

// Engineer application statuses as reported by the remote API
const (
	UserStatusPending  = "Pending"
	UserStatusApproved = "Approved"
	UserStatusRejected = "Rejected"
)

// RoleAdmin is the only role allowed to sign in to the console
const RoleAdmin = "Admin"

// User represents an engineer application (or an approved engineer) owned by the remote API
type User struct {
	ID           string        `json:"_id"`
	FullName     string        `json:"fullName"`
	Email        string        `json:"email"`
	PhoneNumber  string        `json:"phoneNumber"`
	EmployeeID   string        `json:"employeeId"`
	Role         string        `json:"role"`
	Status       string        `json:"status"`
	Expertise    []string      `json:"expertise"`
	UPIID        *string       `json:"upiId,omitempty"` // nullable, set once the engineer registers a UPI handle
	ServiceAreas []ServiceArea `json:"serviceAreas"`
	Documents    UserDocuments `json:"documents"`
}

// ServiceArea is a named area an engineer covers
type ServiceArea struct {
	Name string `json:"name"`
}

// UserDocuments holds the identity documents attached to an application
type UserDocuments struct {
	Aadhaar *DocumentNumber `json:"aadhaar,omitempty"`
	License *DocumentNumber `json:"license,omitempty"`
}

// DocumentNumber wraps a document identifier
type DocumentNumber struct {
	Number string `json:"number"`
}

// IsPending returns true if the application still awaits an admin decision
func (u User) IsPending() bool {
	return u.Status == UserStatusPending
}

// ServiceAreaNames returns the service area names in order
func (u User) ServiceAreaNames() []string {
	names := make([]string, 0, len(u.ServiceAreas))
	for _, area := range u.ServiceAreas {
		names = append(names, area.Name)
	}
	return names
}
