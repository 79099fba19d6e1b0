package roledialog

import (
	"errors"
	"log/slog"

	"github.com/nebari-dev/roster/internal/models"
)

// DismissReason is what the dialog passes to ModalHost.Dismiss.
const DismissReason = "cancel"

// DefinePage is the page DefineRole navigates to.
const DefinePage = "roleDefine.htm"

// State is where a session is in its lifetime.
type State int

const (
	// StateOpen means the dialog is showing and accepts edits.
	StateOpen State = iota

	// StateDismissed means the dialog was closed by save, create, delete or cancel.
	StateDismissed

	// StateNavigated means the dialog left the page through DefineRole.
	StateNavigated
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateDismissed:
		return "dismissed"
	case StateNavigated:
		return "navigated"
	default:
		return "unknown"
	}
}

var (
	ErrNilConfig      = errors.New("config cannot be nil")
	ErrNilRole        = errors.New("role cannot be nil")
	ErrNilParent      = errors.New("parent cannot be nil")
	ErrNilHost        = errors.New("modal host cannot be nil")
	ErrNilRoleSource  = errors.New("role source cannot be nil")
	ErrNoNavigator    = errors.New("dialog has no navigator")
	ErrSessionClosed  = errors.New("dialog session is closed")
	ErrRoleNotListed  = errors.New("role is not in the role list")
	ErrNameFixed      = errors.New("name of an existing role cannot be changed")
	ErrPlayerNotFound = errors.New("player is not on the role")
)

// Config holds what a dialog needs when it opens.
type Config struct {
	// Role is the role being edited, or a blank role for the create flow.
	// The session works on its own copy.
	Role *models.Role

	// IsNew selects the create flow. It is fixed for the session.
	IsNew bool

	Parent    Parent
	Host      ModalHost
	Navigator Navigator
	Roles     RoleSource

	// People is optional; without it LoadPersonList finds nobody.
	People PersonFinder

	// Logger is the diagnostic channel. Defaults to slog.Default().
	Logger *slog.Logger
}
