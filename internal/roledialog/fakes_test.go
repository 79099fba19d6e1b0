package roledialog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nebari-dev/roster/internal/models"
)

type fakeParent struct {
	mu      sync.Mutex
	updated []*models.Role
	created []*models.Role
	deleted []*models.Role
	cleaned []*models.Role
}

func (p *fakeParent) UpdateRole(_ context.Context, role *models.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, role)
}

func (p *fakeParent) SaveCreatedRole(_ context.Context, role *models.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, role)
}

func (p *fakeParent) DeleteRole(_ context.Context, role *models.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, role)
}

func (p *fakeParent) CleanDuplicates(_ context.Context, role *models.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleaned = append(p.cleaned, role)
}

type fakeHost struct {
	mu      sync.Mutex
	reasons []string
}

func (h *fakeHost) Dismiss(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, reason)
}

func (h *fakeHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reasons)
}

type fakeNavigator struct {
	targets []string
}

func (n *fakeNavigator) Navigate(target string) {
	n.targets = append(n.targets, target)
}

type fakeSource struct {
	mu           sync.Mutex
	roles        []models.Role
	allErr       error
	byName       map[string]*models.Role
	refreshErr   error
	allCalls     int
	refreshNames []string

	// gate, when set, holds GetAllRoles until it is closed.
	gate      chan struct{}
	ignoreCtx bool
}

func (f *fakeSource) GetAllRoles(ctx context.Context) ([]models.Role, error) {
	f.mu.Lock()
	f.allCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		if f.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.allErr != nil {
		return nil, f.allErr
	}
	out := make([]models.Role, len(f.roles))
	for i := range f.roles {
		out[i] = *f.roles[i].Clone()
	}
	return out, nil
}

func (f *fakeSource) RefreshRole(_ context.Context, name string) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshNames = append(f.refreshNames, name)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	role, ok := f.byName[name]
	if !ok {
		return nil, errors.New("role not found")
	}
	return role.Clone(), nil
}

type fakeFinder struct {
	queries []string
	people  []models.Person
}

func (f *fakeFinder) FindMatchingPeople(_ context.Context, query string) ([]models.Person, error) {
	f.queries = append(f.queries, query)
	return f.people, nil
}

// logSink collects every record logged through a captureHandler.
type logSink struct {
	mu      sync.Mutex
	records []slog.Record
}

func (s *logSink) errors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Level >= slog.LevelError {
			n++
		}
	}
	return n
}

type captureHandler struct {
	sink *logSink
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = append(h.sink.records, r.Clone())
	return nil
}

func (h captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h captureHandler) WithGroup(string) slog.Handler { return h }
