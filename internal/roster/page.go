// Package roster is the page that owns a project's role list. Role dialogs
// report their changes to it, and it forwards them to the server and the
// local cache.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nebari-dev/roster/internal/models"
	"github.com/nebari-dev/roster/internal/people"
	"github.com/nebari-dev/roster/internal/roledialog"
	"github.com/nebari-dev/roster/internal/store"
)

// RoleService is the set of role endpoint operations the page uses.
type RoleService interface {
	GetAllRoles(ctx context.Context) ([]models.Role, error)
	RefreshRole(ctx context.Context, name string) (*models.Role, error)
	UpdateRole(ctx context.Context, role *models.Role) (*models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) (*models.Role, error)
	DeleteRole(ctx context.Context, role *models.Role) error
}

// ErrNilClient is returned by New without a role service.
var ErrNilClient = errors.New("role service cannot be nil")

// Config configures a Page.
type Config struct {
	Client RoleService

	// Store is optional. Without it the role list lives in memory only.
	Store *store.Store

	// People, when set, learns every player the page sees and backs the
	// dialogs' player autocomplete.
	People *people.Directory

	Logger *slog.Logger
}

// Page holds the role list of one project.
type Page struct {
	client RoleService
	store  *store.Store
	people *people.Directory
	logger *slog.Logger

	mu      sync.RWMutex
	roles   []models.Role
	lastErr error
}

// New creates a Page. Call Load or Sync to fill it.
func New(cfg Config) (*Page, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		client: cfg.Client,
		store:  cfg.Store,
		people: cfg.People,
		logger: logger,
		roles:  []models.Role{},
	}, nil
}

// Load fills the page from the local cache.
func (p *Page) Load() error {
	if p.store == nil {
		return nil
	}
	roles, err := p.store.ListRoles()
	if err != nil {
		return fmt.Errorf("loading cached roles: %w", err)
	}
	p.mu.Lock()
	p.roles = roles
	p.mu.Unlock()
	p.learnPeople(roles)
	return nil
}

// Sync replaces the page's roles with the server's list.
func (p *Page) Sync(ctx context.Context) error {
	roles, err := p.client.GetAllRoles(ctx)
	if err != nil {
		return fmt.Errorf("fetching roles: %w", err)
	}
	if p.store != nil {
		if err := p.store.ReplaceAll(roles, time.Now()); err != nil {
			return fmt.Errorf("caching roles: %w", err)
		}
	}
	p.mu.Lock()
	p.roles = roles
	p.mu.Unlock()
	p.learnPeople(roles)
	p.logger.Debug("synced roles", "count", len(roles))
	return nil
}

// Roles returns a copy of the page's roles in display order.
func (p *Page) Roles() []models.Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Role, len(p.roles))
	for i := range p.roles {
		out[i] = *p.roles[i].Clone()
	}
	return out
}

// Find returns a copy of the first role with the given name, or nil.
func (p *Page) Find(name string) *models.Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.indexLocked(name); i >= 0 {
		return p.roles[i].Clone()
	}
	return nil
}

// LastError returns the most recent failure of a dialog-driven change.
// Those failures are logged and never handed back to the dialog.
func (p *Page) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// OpenDialog opens a role dialog with this page as its parent.
func (p *Page) OpenDialog(ctx context.Context, role *models.Role, isNew bool, host roledialog.ModalHost, nav roledialog.Navigator) (*roledialog.Session, error) {
	cfg := &roledialog.Config{
		Role:      role,
		IsNew:     isNew,
		Parent:    p,
		Host:      host,
		Navigator: nav,
		Roles:     p.client,
		Logger:    p.logger,
	}
	if p.people != nil {
		cfg.People = p.people
	}
	return roledialog.Open(ctx, cfg)
}

// UpdateRole sends the fields present in role to the server and caches the result.
func (p *Page) UpdateRole(ctx context.Context, role *models.Role) {
	if err := models.ValidateRole(role); err != nil {
		p.fail("update role", role, err)
		return
	}
	updated, err := p.client.UpdateRole(ctx, role)
	if err != nil {
		p.fail("update role", role, err)
		return
	}
	if updated.Name == "" {
		updated = role.Clone()
	}
	p.mu.Lock()
	if i := p.indexLocked(updated.Name); i >= 0 {
		p.roles[i] = *updated.Clone()
	} else {
		p.roles = append(p.roles, *updated.Clone())
	}
	p.mu.Unlock()
	p.cache(updated)
}

// SaveCreatedRole creates role on the server and appends it to the page.
func (p *Page) SaveCreatedRole(ctx context.Context, role *models.Role) {
	if err := models.ValidateRole(role); err != nil {
		p.fail("create role", role, err)
		return
	}
	created, err := p.client.CreateRole(ctx, role)
	if err != nil {
		p.fail("create role", role, err)
		return
	}
	if created.Name == "" {
		created = role.Clone()
	}
	p.mu.Lock()
	p.roles = append(p.roles, *created.Clone())
	p.mu.Unlock()
	p.cache(created)
}

// DeleteRole deletes role on the server and removes every entry with its name.
func (p *Page) DeleteRole(ctx context.Context, role *models.Role) {
	if role == nil || role.Name == "" {
		p.fail("delete role", role, &models.ValidationError{Message: "name is required"})
		return
	}
	if err := p.client.DeleteRole(ctx, role); err != nil {
		p.fail("delete role", role, err)
		return
	}
	p.mu.Lock()
	kept := p.roles[:0]
	for _, r := range p.roles {
		if r.Name != role.Name {
			kept = append(kept, r)
		}
	}
	p.roles = kept
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.DeleteRole(role.Name); err != nil {
			p.logger.Warn("failed to drop cached role", "role", role.Name, "error", err)
		}
	}
}

// CleanDuplicates collapses every entry named like role into one, holding
// role's value, at the position of the first of them.
func (p *Page) CleanDuplicates(_ context.Context, role *models.Role) {
	if role == nil {
		return
	}
	p.mu.Lock()
	first := -1
	kept := make([]models.Role, 0, len(p.roles))
	for _, r := range p.roles {
		if r.Name != role.Name {
			kept = append(kept, r)
			continue
		}
		if first < 0 {
			first = len(kept)
			kept = append(kept, *role.Clone())
		}
	}
	p.roles = kept
	p.mu.Unlock()

	if first >= 0 {
		p.cache(role)
	}
}

func (p *Page) indexLocked(name string) int {
	for i := range p.roles {
		if p.roles[i].Name == name {
			return i
		}
	}
	return -1
}

func (p *Page) cache(role *models.Role) {
	p.learnPeople([]models.Role{*role})
	if p.store == nil {
		return
	}
	if err := p.store.SaveRole(role); err != nil {
		p.logger.Warn("failed to cache role", "role", role.Name, "error", err)
	}
}

func (p *Page) learnPeople(roles []models.Role) {
	if p.people != nil {
		p.people.AddRoles(roles)
	}
}

func (p *Page) fail(op string, role *models.Role, err error) {
	name := ""
	if role != nil {
		name = role.Name
	}
	p.mu.Lock()
	p.lastErr = fmt.Errorf("%s %q: %w", op, name, err)
	p.mu.Unlock()
	p.logger.Error("role change failed", "op", op, "role", name, "error", err)
}
