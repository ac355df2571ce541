package models

import (
	"time"
)

// ConsoleSetting is a key/value row persisted by the console itself.
// The admin bearer token lives here under a fixed key.
type ConsoleSetting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"-"` // may hold a bearer token, never serialised
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ConsoleSetting model
func (ConsoleSetting) TableName() string {
	return "console_settings"
}
