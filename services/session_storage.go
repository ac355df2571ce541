package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kendall-kelly/field-service-admin/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionTokenKey is the fixed key the admin bearer token is stored under
const SessionTokenKey = "admin_token"

// SessionStorage persists the admin bearer token across restarts
type SessionStorage interface {
	// Load returns the stored token, or "" when none is stored
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// GormSessionStorage keeps the token in the console_settings table
type GormSessionStorage struct {
	db *gorm.DB
}

// NewGormSessionStorage creates a storage adapter over an open gorm connection
func NewGormSessionStorage(db *gorm.DB) *GormSessionStorage {
	return &GormSessionStorage{db: db}
}

// Load reads the token row
func (s *GormSessionStorage) Load(ctx context.Context) (string, error) {
	var setting models.ConsoleSetting
	err := s.db.WithContext(ctx).Where("key = ?", SessionTokenKey).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session token: %w", err)
	}
	return setting.Value, nil
}

// Save upserts the token row
func (s *GormSessionStorage) Save(ctx context.Context, token string) error {
	setting := models.ConsoleSetting{Key: SessionTokenKey, Value: token}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

// Clear deletes the token row
func (s *GormSessionStorage) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("key = ?", SessionTokenKey).Delete(&models.ConsoleSetting{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// MemorySessionStorage keeps the token in process memory only
type MemorySessionStorage struct {
	mu    sync.RWMutex
	token string
}

// NewMemorySessionStorage creates an empty in-memory storage
func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{}
}

func (s *MemorySessionStorage) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemorySessionStorage) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
