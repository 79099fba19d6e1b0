package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nebari-dev/roster/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListRoles returns all cached roles ordered by name.
func (s *Store) ListRoles() ([]models.Role, error) {
	var rows []CachedRole
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	roles := make([]models.Role, 0, len(rows))
	for _, row := range rows {
		role, err := decodeRole(row)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

// GetRole returns the cached role with the given name, or nil if not found.
func (s *Store) GetRole(name string) (*models.Role, error) {
	var row CachedRole
	result := s.db.Where("name = ?", name).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting role: %w", result.Error)
	}
	return decodeRole(row)
}

// SaveRole inserts or replaces the cached copy of a role.
func (s *Store) SaveRole(role *models.Role) error {
	row, err := encodeRole(role)
	if err != nil {
		return err
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("saving role: %w", err)
	}
	return nil
}

// DeleteRole removes a role from the cache. Deleting an unknown role is not an error.
func (s *Store) DeleteRole(name string) error {
	if err := s.db.Where("name = ?", name).Delete(&CachedRole{}).Error; err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole cache for roles and records the sync time.
func (s *Store) ReplaceAll(roles []models.Role, syncedAt time.Time) error {
	rows := make([]*CachedRole, 0, len(roles))
	for i := range roles {
		row, err := encodeRole(&roles[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CachedRole{}).Error; err != nil {
			return fmt.Errorf("clearing roles: %w", err)
		}
		for _, row := range rows {
			// last one wins if the server list repeats a name
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
			}).Create(row).Error
			if err != nil {
				return fmt.Errorf("saving role %s: %w", row.Name, err)
			}
		}
		if err := tx.Save(&SyncState{ID: 1, SyncedAt: &syncedAt}).Error; err != nil {
			return fmt.Errorf("recording sync: %w", err)
		}
		return nil
	})
}

// LastSynced returns the time of the last ReplaceAll, or nil if the cache
// has never been synced.
func (s *Store) LastSynced() (*time.Time, error) {
	var st SyncState
	if err := s.db.First(&st, 1).Error; err != nil {
		return nil, nil
	}
	return st.SyncedAt, nil
}

func encodeRole(role *models.Role) (*CachedRole, error) {
	if role == nil || role.Name == "" {
		return nil, errors.New("role name cannot be empty")
	}
	data, err := json.Marshal(role)
	if err != nil {
		return nil, fmt.Errorf("encoding role %s: %w", role.Name, err)
	}
	return &CachedRole{Name: role.Name, Data: string(data)}, nil
}

func decodeRole(row CachedRole) (*models.Role, error) {
	var role models.Role
	if err := json.Unmarshal([]byte(row.Data), &role); err != nil {
		return nil, fmt.Errorf("decoding role %s: %w", row.Name, err)
	}
	return &role, nil
}
