package roledialog

import (
	"context"

	"github.com/nebari-dev/roster/internal/models"
)

// Parent is the page that owns the role collection. The dialog hands every
// change to it and never looks at the outcome.
type Parent interface {
	// UpdateRole stores changes to an existing role. role may be a patch
	// carrying only name, color and players.
	UpdateRole(ctx context.Context, role *models.Role)

	// SaveCreatedRole stores a role created in the dialog.
	SaveCreatedRole(ctx context.Context, role *models.Role)

	// DeleteRole removes a role.
	DeleteRole(ctx context.Context, role *models.Role)

	// CleanDuplicates reconciles the parent's local copies of role with a
	// freshly fetched one.
	CleanDuplicates(ctx context.Context, role *models.Role)
}

// ModalHost owns the dialog surface.
type ModalHost interface {
	Dismiss(reason string)
}

// Navigator leaves the current page.
type Navigator interface {
	Navigate(target string)
}

// RoleSource fetches roles from the server.
type RoleSource interface {
	GetAllRoles(ctx context.Context) ([]models.Role, error)
	RefreshRole(ctx context.Context, name string) (*models.Role, error)
}

// PersonFinder answers player autocomplete queries.
type PersonFinder interface {
	FindMatchingPeople(ctx context.Context, query string) ([]models.Person, error)
}
