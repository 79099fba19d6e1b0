// Package roledialog is the controller behind the role edit dialog: it owns
// the dialog's working copy of a role and turns button presses into calls on
// the page that owns the role collection.
package roledialog

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/nebari-dev/roster/internal/models"
	"golang.org/x/sync/errgroup"
)

// Session is one open role dialog. It is created by Open and is finished
// once it has been dismissed or has navigated away.
type Session struct {
	id     string
	isNew  bool
	name   string // as opened; refreshes use it
	parent Parent
	host   ModalHost
	nav    Navigator
	roles  RoleSource
	people PersonFinder
	logger *slog.Logger

	// ctx is cancelled when the session ends; only the fetches started by
	// Open run under it.
	ctx     context.Context
	cancel  context.CancelFunc
	fetches errgroup.Group

	mu          sync.Mutex
	state       State
	roleInfo    *models.Role
	currentTerm *models.Term
	allRoles    []models.Role
	roleToCopy  *models.Role

	// results of the fetches started by Open
	listErr    error
	refreshErr error
}

// Open starts a dialog session. It fetches the role list for the "copy from"
// picker and, when editing an existing role, refreshes the role from the
// server. Both fetches run in the background; Wait blocks until they are done.
func Open(ctx context.Context, cfg *Config) (*Session, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Role == nil {
		return nil, ErrNilRole
	}
	if cfg.Parent == nil {
		return nil, ErrNilParent
	}
	if cfg.Host == nil {
		return nil, ErrNilHost
	}
	if cfg.Roles == nil {
		return nil, ErrNilRoleSource
	}

	id := uuid.New().String()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:       id,
		isNew:    cfg.IsNew,
		name:     cfg.Role.Name,
		parent:   cfg.Parent,
		host:     cfg.Host,
		nav:      cfg.Navigator,
		roles:    cfg.Roles,
		people:   cfg.People,
		logger:   logger.With("dialog_id", id, "role", cfg.Role.Name),
		state:    StateOpen,
		roleInfo: cfg.Role.Clone(),
		allRoles: []models.Role{},
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.recomputeLocked()

	s.fetches.Go(func() error {
		err := s.GetAllRoles(s.ctx)
		s.mu.Lock()
		s.listErr = err
		s.mu.Unlock()
		return err
	})
	if !s.isNew {
		s.logger.Debug("refreshing role")
		s.fetches.Go(func() error {
			err := s.RefreshRole(s.ctx)
			s.mu.Lock()
			s.refreshErr = err
			s.mu.Unlock()
			return err
		})
	}

	return s, nil
}

// Wait blocks until the fetches started by Open have finished and returns
// the first of their errors. Those errors have already been logged; use
// RoleListErr and RefreshErr to tell them apart.
func (s *Session) Wait() error {
	return s.fetches.Wait()
}

// RoleListErr returns the error of the role-list fetch started by Open.
// It is only meaningful after Wait.
func (s *Session) RoleListErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listErr
}

// RefreshErr returns the error of the refresh started by Open, or nil for
// the create flow. It is only meaningful after Wait.
func (s *Session) RefreshErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshErr
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the dialog was opened for the create flow.
func (s *Session) IsNew() bool { return s.isNew }

// Colors returns the palette offered by the colour picker.
func (s *Session) Colors() []string {
	return append([]string(nil), models.Palette...)
}

// State returns the lifetime state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Role returns a copy of the working role.
func (s *Session) Role() *models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roleInfo.Clone()
}

// CurrentTerm returns a copy of the derived current term, or nil.
func (s *Session) CurrentTerm() *models.Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTerm(s.currentTerm)
}

// AllRoles returns a copy of the role list used by the "copy from" picker.
func (s *Session) AllRoles() []models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Role, len(s.allRoles))
	for i := range s.allRoles {
		out[i] = *s.allRoles[i].Clone()
	}
	return out
}

// RoleToCopy returns a copy of the role selected in the "copy from" picker, or nil.
func (s *Session) RoleToCopy() *models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roleToCopy.Clone()
}

// LoadPersonList returns the people matching query for the player autocomplete.
func (s *Session) LoadPersonList(ctx context.Context, query string) ([]models.Person, error) {
	if s.people == nil {
		return []models.Person{}, nil
	}
	return s.people.FindMatchingPeople(ctx, query)
}

// GetCurrentTerm recomputes the current term from the working role and returns it.
func (s *Session) GetCurrentTerm() *models.Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	return cloneTerm(s.currentTerm)
}

// GetAllRoles fetches the role list for the "copy from" picker. On failure
// the error is logged and the previous list is kept.
func (s *Session) GetAllRoles(ctx context.Context) error {
	roles, err := s.roles.GetAllRoles(ctx)
	if err != nil {
		s.reportError("get all roles", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		s.logger.Debug("dropping role list that arrived after the dialog closed")
		return nil
	}
	if roles == nil {
		roles = []models.Role{}
	}
	s.allRoles = roles
	s.logger.Debug("loaded role list", "count", len(roles))

	// the selection points into the old list; keep it if the role still exists
	if s.roleToCopy != nil {
		s.roleToCopy = s.findListedLocked(s.roleToCopy.Name)
	}
	return nil
}

// RefreshRole replaces the working role with the server's copy of the role
// the dialog was opened with. On failure the error is logged and the
// working role is left alone.
func (s *Session) RefreshRole(ctx context.Context) error {
	fresh, err := s.roles.RefreshRole(ctx, s.name)
	if err != nil {
		s.reportError("refresh role", err)
		return err
	}

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		s.logger.Debug("dropping refreshed role that arrived after the dialog closed")
		return nil
	}
	s.roleInfo = fresh.Clone()
	s.recomputeLocked()
	s.mu.Unlock()

	s.parent.CleanDuplicates(ctx, fresh)
	return nil
}

// UpdatePlayers sends the players, together with name and colour, to the
// parent without closing the dialog.
func (s *Session) UpdatePlayers(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	patch := &models.Role{
		Name:    s.roleInfo.Name,
		Color:   s.roleInfo.Color,
		Players: append([]models.Person{}, s.roleInfo.Players...),
	}
	s.recomputeLocked()
	s.mu.Unlock()

	s.logger.Debug("updating players", "players", len(patch.Players))
	s.parent.UpdateRole(ctx, patch)
	return nil
}

// CreateAndClose hands the new role to the parent and dismisses the dialog.
// When a role to copy was picked, all of its fields replace the working
// role except the name the user typed.
func (s *Session) CreateAndClose(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.roleToCopy != nil {
		name := s.roleInfo.Name
		s.roleInfo = s.roleToCopy.Clone()
		s.roleInfo.Name = name
		s.recomputeLocked()
	}
	role := s.roleInfo.Clone()
	s.state = StateDismissed
	s.mu.Unlock()

	s.parent.SaveCreatedRole(ctx, role)
	s.dismiss()
	return nil
}

// SaveAndClose hands the whole working role to the parent and dismisses the dialog.
func (s *Session) SaveAndClose(ctx context.Context) error {
	role, err := s.finish(StateDismissed)
	if err != nil {
		return err
	}
	s.parent.UpdateRole(ctx, role)
	s.dismiss()
	return nil
}

// DefineRole creates the role and leaves for its definition page.
func (s *Session) DefineRole(ctx context.Context) error {
	if s.nav == nil {
		return ErrNoNavigator
	}
	role, err := s.finish(StateNavigated)
	if err != nil {
		return err
	}
	s.parent.SaveCreatedRole(ctx, role)
	s.cancel()
	s.logger.Debug("leaving for role definition page")
	s.nav.Navigate(DefineRoleURL(role.Name))
	return nil
}

// DeleteAndClose asks the parent to delete the role and dismisses the dialog.
func (s *Session) DeleteAndClose(ctx context.Context) error {
	role, err := s.finish(StateDismissed)
	if err != nil {
		return err
	}
	s.parent.DeleteRole(ctx, role)
	s.dismiss()
	return nil
}

// Cancel dismisses the dialog without touching the role.
func (s *Session) Cancel() error {
	if _, err := s.finish(StateDismissed); err != nil {
		return err
	}
	s.dismiss()
	return nil
}

// DefineRoleURL is the page-relative address of the definition page for a role.
func DefineRoleURL(name string) string {
	return DefinePage + "?role=" + url.QueryEscape(name)
}

// finish moves an open session to its terminal state and returns a copy of
// the working role.
func (s *Session) finish(to State) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return nil, ErrSessionClosed
	}
	s.state = to
	return s.roleInfo.Clone(), nil
}

func (s *Session) dismiss() {
	s.cancel()
	s.logger.Debug("dismissing dialog")
	s.host.Dismiss(DismissReason)
}

// recomputeLocked derives the current term. s.mu must be held.
func (s *Session) recomputeLocked() {
	s.currentTerm = nil
	if s.roleInfo == nil || s.roleInfo.CurrentTerm == "" || len(s.roleInfo.Terms) == 0 {
		return
	}
	s.currentTerm = s.roleInfo.FindTerm(s.roleInfo.CurrentTerm)
}

func (s *Session) findListedLocked(name string) *models.Role {
	for i := range s.allRoles {
		if s.allRoles[i].Name == name {
			return &s.allRoles[i]
		}
	}
	return nil
}

func (s *Session) reportError(op string, err error) {
	if errors.Is(err, context.Canceled) && s.State() != StateOpen {
		s.logger.Debug("request abandoned after the dialog closed", "op", op)
		return
	}
	s.logger.Error("role dialog request failed", "op", op, "error", err)
}

func cloneTerm(t *models.Term) *models.Term {
	if t == nil {
		return nil
	}
	c := t.Clone()
	return &c
}
