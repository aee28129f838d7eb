// Package store persists the one token string a client instance owns,
// the local stand-in for browser localStorage.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Credential is the single-row table holding the session token.
type Credential struct {
	ID        uint `gorm:"primaryKey"`
	Token     string
	UpdatedAt time.Time
}

// SQLiteStore keeps the credential row in a local SQLite file so the
// session survives process restarts.
type SQLiteStore struct {
	db *gorm.DB
}

func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() (string, error) {
	var cred Credential
	err := s.db.First(&cred, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return cred.Token, nil
}

func (s *SQLiteStore) Save(token string) error {
	cred := Credential{ID: 1, Token: token, UpdatedAt: time.Now().UTC()}
	if err := s.db.Save(&cred).Error; err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	err := s.db.Delete(&Credential{}, 1).Error
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
