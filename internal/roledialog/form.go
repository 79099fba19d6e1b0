package roledialog

import (
	"strings"

	"github.com/nebari-dev/roster/internal/models"
)

// edit applies fn to the working role of an open session and recomputes
// the current term afterwards.
func (s *Session) edit(fn func(r *models.Role) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	if err := fn(s.roleInfo); err != nil {
		return err
	}
	s.recomputeLocked()
	return nil
}

// SetName names the role being created. Existing roles keep their name.
func (s *Session) SetName(name string) error {
	if !s.isNew {
		return ErrNameFixed
	}
	return s.edit(func(r *models.Role) error {
		r.Name = strings.TrimSpace(name)
		return nil
	})
}

// SetColor picks a palette colour.
func (s *Session) SetColor(color string) error {
	if err := models.CheckColor(color); err != nil {
		return err
	}
	return s.edit(func(r *models.Role) error {
		r.Color = color
		return nil
	})
}

// SetPlayers replaces the player list.
func (s *Session) SetPlayers(players []models.Person) error {
	return s.edit(func(r *models.Role) error {
		r.Players = append([]models.Person{}, players...)
		return nil
	})
}

// AddPlayer appends a player unless the person already plays the role.
func (s *Session) AddPlayer(p models.Person) error {
	return s.edit(func(r *models.Role) error {
		for _, existing := range r.Players {
			if existing.SameAs(p) {
				return nil
			}
		}
		r.Players = append(r.Players, p)
		return nil
	})
}

// RemovePlayer drops the player with the given uid.
func (s *Session) RemovePlayer(uid string) error {
	return s.edit(func(r *models.Role) error {
		target := models.Person{UID: uid}
		for i, existing := range r.Players {
			if existing.SameAs(target) {
				r.Players = append(r.Players[:i:i], r.Players[i+1:]...)
				return nil
			}
		}
		return ErrPlayerNotFound
	})
}

// SetCurrentTerm points the role at another term key. An empty key clears it.
func (s *Session) SetCurrentTerm(key string) error {
	return s.edit(func(r *models.Role) error {
		r.CurrentTerm = key
		return nil
	})
}

// SelectRoleToCopy picks a role from the role list whose fields the create
// flow copies.
func (s *Session) SelectRoleToCopy(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	listed := s.findListedLocked(name)
	if listed == nil {
		return ErrRoleNotListed
	}
	s.roleToCopy = listed
	return nil
}

// ClearRoleToCopy removes the "copy from" selection.
func (s *Session) ClearRoleToCopy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleToCopy = nil
}
