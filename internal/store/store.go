// Package store is the local SQLite cache of project roles.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store manages the local roster SQLite database via GORM.
type Store struct {
	db      *gorm.DB
	dataDir string
}

// New creates a Store using the default platform data directory.
func New() (*Store, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("determining data directory: %w", err)
	}
	return Open(dataDir)
}

// Open creates a Store with a specific data directory.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "roster.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode
	db.Exec("PRAGMA journal_mode=WAL")

	if err := db.AutoMigrate(&CachedRole{}, &SyncState{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	// Seed singleton row
	db.Exec("INSERT OR IGNORE INTO sync_state (id) VALUES (1)")

	return &Store{db: db, dataDir: dataDir}, nil
}

// DB returns the underlying GORM DB for advanced queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// DataDir returns the store's data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DefaultDataDir returns ~/.local/share/roster/ on Linux, platform equivalent elsewhere.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("ROSTER_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "roster"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "roster"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "roster"), nil
	default:
		return filepath.Join(home, ".local", "share", "roster"), nil
	}
}

// CachedRole is one role as last seen from the server, stored as JSON so
// fields the client does not model survive.
type CachedRole struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Data      string `gorm:"not null"`
	UpdatedAt time.Time
}

func (CachedRole) TableName() string { return "cached_roles" }

// SyncState is a singleton table recording the last full sync.
type SyncState struct {
	ID       int `gorm:"primarykey"`
	SyncedAt *time.Time
}

func (SyncState) TableName() string { return "sync_state" }
