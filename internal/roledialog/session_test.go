package roledialog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/nebari-dev/roster/internal/models"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite
	ctx    context.Context
	parent *fakeParent
	host   *fakeHost
	nav    *fakeNavigator
	source *fakeSource
	finder *fakeFinder
	logs   *logSink
	logger *slog.Logger

	p1 models.Person
	p2 models.Person
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.parent = &fakeParent{}
	s.host = &fakeHost{}
	s.nav = &fakeNavigator{}
	s.source = &fakeSource{byName: map[string]*models.Role{}}
	s.finder = &fakeFinder{}
	s.logs = &logSink{}
	s.logger = slog.New(captureHandler{sink: s.logs})

	s.p1 = models.Person{UID: "p1@example.com", Name: "Player One"}
	s.p2 = models.Person{UID: "p2@example.com", Name: "Player Two"}
}

// open starts a session and waits for its open-time fetches.
func (s *SessionTestSuite) open(role *models.Role, isNew bool) *Session {
	sess, err := Open(s.ctx, &Config{
		Role:      role,
		IsNew:     isNew,
		Parent:    s.parent,
		Host:      s.host,
		Navigator: s.nav,
		Roles:     s.source,
		People:    s.finder,
		Logger:    s.logger,
	})
	s.Require().NoError(err)
	_ = sess.Wait()
	return sess
}

func (s *SessionTestSuite) TestOpenValidatesConfig() {
	_, err := Open(s.ctx, nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = Open(s.ctx, &Config{Parent: s.parent, Host: s.host, Roles: s.source})
	s.ErrorIs(err, ErrNilRole)

	_, err = Open(s.ctx, &Config{Role: &models.Role{}, Host: s.host, Roles: s.source})
	s.ErrorIs(err, ErrNilParent)

	_, err = Open(s.ctx, &Config{Role: &models.Role{}, Parent: s.parent, Roles: s.source})
	s.ErrorIs(err, ErrNilHost)

	_, err = Open(s.ctx, &Config{Role: &models.Role{}, Parent: s.parent, Host: s.host})
	s.ErrorIs(err, ErrNilRoleSource)
}

func (s *SessionTestSuite) TestCurrentTermMatchesKey() {
	sess := s.open(&models.Role{
		Name:        "GM",
		Terms:       []models.Term{{Key: "t1"}, {Key: "t2"}},
		CurrentTerm: "t2",
	}, true)

	term := sess.CurrentTerm()
	s.Require().NotNil(term)
	s.Equal("t2", term.Key)

	first := sess.GetCurrentTerm()
	second := sess.GetCurrentTerm()
	s.Equal(first, second)
	s.Equal("t2", second.Key)
}

func (s *SessionTestSuite) TestCurrentTermUnset() {
	tests := []struct {
		name string
		role *models.Role
	}{
		{name: "no current term", role: &models.Role{Name: "A", Terms: []models.Term{{Key: "t1"}}}},
		{name: "no terms", role: &models.Role{Name: "A", CurrentTerm: "t1"}},
		{name: "no match", role: &models.Role{Name: "A", Terms: []models.Term{{Key: "t1"}}, CurrentTerm: "t9"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			sess := s.open(tt.role, true)
			s.Nil(sess.CurrentTerm())
			s.Nil(sess.GetCurrentTerm())
		})
	}
}

func (s *SessionTestSuite) TestCurrentTermDuplicateKeysLastWins() {
	sess := s.open(&models.Role{
		Name: "GM",
		Terms: []models.Term{
			{Key: "t1", Extra: map[string]json.RawMessage{"n": json.RawMessage(`1`)}},
			{Key: "t1", Extra: map[string]json.RawMessage{"n": json.RawMessage(`2`)}},
		},
		CurrentTerm: "t1",
	}, true)

	term := sess.GetCurrentTerm()
	s.Require().NotNil(term)
	s.Equal("2", string(term.Extra["n"]))
}

func (s *SessionTestSuite) TestSetCurrentTermRecomputes() {
	sess := s.open(&models.Role{Name: "A", Terms: []models.Term{{Key: "t1"}, {Key: "t2"}}, CurrentTerm: "t1"}, true)
	s.Require().NoError(sess.SetCurrentTerm("t2"))
	s.Equal("t2", sess.CurrentTerm().Key)

	s.Require().NoError(sess.SetCurrentTerm(""))
	s.Nil(sess.CurrentTerm())
}

func (s *SessionTestSuite) TestCreateAndCloseCopiesSelectedRole() {
	s.source.roles = []models.Role{{
		Name:        "Old",
		Color:       "salmon",
		Players:     []models.Person{s.p1, s.p2},
		Terms:       []models.Term{{Key: "t1"}},
		CurrentTerm: "t1",
		Extra:       map[string]json.RawMessage{"description": json.RawMessage(`"old one"`)},
	}}
	sess := s.open(&models.Role{Name: "New"}, true)

	s.Require().NoError(sess.SelectRoleToCopy("Old"))
	s.Require().NoError(sess.CreateAndClose(s.ctx))

	s.Require().Len(s.parent.created, 1)
	created := s.parent.created[0]
	s.Equal("New", created.Name)
	s.Equal("salmon", created.Color)
	s.Equal([]models.Person{s.p1, s.p2}, created.Players)
	s.Equal(`"old one"`, string(created.Extra["description"]))
	s.Equal(1, s.host.count())
	s.Equal([]string{DismissReason}, s.host.reasons)
	s.Equal(StateDismissed, sess.State())

	// the picked role itself is untouched
	s.Equal("Old", sess.AllRoles()[0].Name)
}

func (s *SessionTestSuite) TestCreateAndCloseWithoutCopy() {
	sess := s.open(&models.Role{Name: "Fresh"}, true)
	s.Require().NoError(sess.SetColor("aqua"))
	s.Require().NoError(sess.AddPlayer(s.p1))
	s.Require().NoError(sess.CreateAndClose(s.ctx))

	s.Require().Len(s.parent.created, 1)
	s.Equal(&models.Role{Name: "Fresh", Color: "aqua", Players: []models.Person{s.p1}}, s.parent.created[0])
	s.Equal(1, s.host.count())
}

func (s *SessionTestSuite) TestGetAllRolesStoresList() {
	s.source.roles = []models.Role{{Name: "A"}}
	sess := s.open(&models.Role{Name: "New"}, true)

	s.Equal([]models.Role{{Name: "A"}}, sess.AllRoles())
	s.Equal(0, s.logs.errors())
}

func (s *SessionTestSuite) TestGetAllRolesFailureKeepsList() {
	s.source.allErr = errors.New("500 internal error")
	sess := s.open(&models.Role{Name: "New"}, true)

	s.Equal([]models.Role{}, sess.AllRoles())
	s.Equal(1, s.logs.errors())
}

func (s *SessionTestSuite) TestGetAllRolesFailureAfterSuccessKeepsOldList() {
	s.source.roles = []models.Role{{Name: "A"}}
	sess := s.open(&models.Role{Name: "New"}, true)

	s.source.allErr = errors.New("offline")
	err := sess.GetAllRoles(s.ctx)
	s.Error(err)
	s.Equal([]models.Role{{Name: "A"}}, sess.AllRoles())
}

func (s *SessionTestSuite) TestGetAllRolesKeepsSelectionByName() {
	s.source.roles = []models.Role{{Name: "A", Color: "white"}, {Name: "B"}}
	sess := s.open(&models.Role{Name: "New"}, true)
	s.Require().NoError(sess.SelectRoleToCopy("A"))

	s.source.roles = []models.Role{{Name: "A", Color: "tomato"}}
	s.Require().NoError(sess.GetAllRoles(s.ctx))
	s.Equal("tomato", sess.RoleToCopy().Color)

	s.Require().NoError(sess.SelectRoleToCopy("A"))
	s.source.roles = []models.Role{{Name: "B"}}
	s.Require().NoError(sess.GetAllRoles(s.ctx))
	s.Nil(sess.RoleToCopy())
}

func (s *SessionTestSuite) TestUpdatePlayersSendsPatch() {
	s.source.byName["X"] = &models.Role{
		Name:    "X",
		Color:   "aqua",
		Players: []models.Person{s.p1, s.p2},
		Terms:   []models.Term{{Key: "t1"}},
		Extra:   map[string]json.RawMessage{"otherField": json.RawMessage(`"ignored"`)},
	}
	sess := s.open(&models.Role{Name: "X"}, false)

	s.Require().NoError(sess.UpdatePlayers(s.ctx))

	s.Require().Len(s.parent.updated, 1)
	s.Equal(&models.Role{Name: "X", Color: "aqua", Players: []models.Person{s.p1, s.p2}}, s.parent.updated[0])
	s.Equal(StateOpen, sess.State())
	s.Equal(0, s.host.count())
}

func (s *SessionTestSuite) TestOpenExistingRefreshesOnce() {
	s.source.byName["GM"] = &models.Role{Name: "GM", Color: "orchid"}
	sess := s.open(&models.Role{Name: "GM"}, false)

	s.Equal([]string{"GM"}, s.source.refreshNames)
	s.Equal(1, s.source.allCalls)
	s.Equal("orchid", sess.Role().Color)
	s.Require().Len(s.parent.cleaned, 1)
	s.Equal("orchid", s.parent.cleaned[0].Color)
}

func (s *SessionTestSuite) TestOpenNewDoesNotRefresh() {
	s.open(&models.Role{Name: "GM"}, true)

	s.Empty(s.source.refreshNames)
	s.Equal(1, s.source.allCalls)
	s.Empty(s.parent.cleaned)
}

func (s *SessionTestSuite) TestFetchErrorsAreReportedSeparately() {
	s.source.allErr = errors.New("boom")
	s.source.byName["GM"] = &models.Role{Name: "GM", Color: "aqua"}
	sess := s.open(&models.Role{Name: "GM"}, false)

	s.Error(sess.RoleListErr())
	s.NoError(sess.RefreshErr())
	s.Equal("aqua", sess.Role().Color)
	s.Equal(StateOpen, sess.State())
}

func (s *SessionTestSuite) TestRefreshErrIsKept() {
	s.source.refreshErr = errors.New("gone")
	sess := s.open(&models.Role{Name: "GM"}, false)

	s.NoError(sess.RoleListErr())
	s.Error(sess.RefreshErr())
}

func (s *SessionTestSuite) TestRefreshUsesNameFromOpen() {
	s.source.byName["Draft"] = &models.Role{Name: "Draft", Color: "white"}
	sess := s.open(&models.Role{Name: "Draft"}, true)
	s.Require().NoError(sess.SetName("Final"))

	s.Require().NoError(sess.RefreshRole(s.ctx))

	s.Equal([]string{"Draft"}, s.source.refreshNames)
}

func (s *SessionTestSuite) TestRefreshRecomputesCurrentTerm() {
	s.source.byName["GM"] = &models.Role{
		Name:        "GM",
		Terms:       []models.Term{{Key: "t1"}, {Key: "t2"}},
		CurrentTerm: "t2",
	}
	sess := s.open(&models.Role{Name: "GM", Terms: []models.Term{{Key: "t1"}}, CurrentTerm: "t1"}, false)

	s.Equal("t2", sess.CurrentTerm().Key)
}

func (s *SessionTestSuite) TestRefreshFailureKeepsStaleRole() {
	s.source.refreshErr = errors.New("network down")
	sess := s.open(&models.Role{Name: "GM", Color: "beige"}, false)

	s.Equal("beige", sess.Role().Color)
	s.Empty(s.parent.cleaned)
	s.Equal(1, s.logs.errors())

	err := sess.RefreshRole(s.ctx)
	s.Error(err)
	s.Equal(2, s.logs.errors())
}

func (s *SessionTestSuite) TestOpenDoesNotTouchCallerRole() {
	role := &models.Role{Name: "GM", Players: []models.Person{s.p1}}
	sess := s.open(role, true)
	s.Require().NoError(sess.AddPlayer(s.p2))

	s.Len(role.Players, 1)
	s.Len(sess.Role().Players, 2)
}

func (s *SessionTestSuite) TestSaveAndClose() {
	s.source.byName["GM"] = &models.Role{Name: "GM", Color: "aqua"}
	sess := s.open(&models.Role{Name: "GM"}, false)
	s.Require().NoError(sess.SetColor("bisque"))

	s.Require().NoError(sess.SaveAndClose(s.ctx))

	s.Require().Len(s.parent.updated, 1)
	s.Equal("bisque", s.parent.updated[0].Color)
	s.Equal(1, s.host.count())
	s.Equal(StateDismissed, sess.State())
}

func (s *SessionTestSuite) TestDeleteAndClose() {
	s.source.byName["GM"] = &models.Role{Name: "GM"}
	sess := s.open(&models.Role{Name: "GM"}, false)

	s.Require().NoError(sess.DeleteAndClose(s.ctx))

	s.Require().Len(s.parent.deleted, 1)
	s.Equal("GM", s.parent.deleted[0].Name)
	s.Equal(1, s.host.count())
}

func (s *SessionTestSuite) TestCancelHasNoSideEffects() {
	sess := s.open(&models.Role{Name: "GM"}, true)

	s.Require().NoError(sess.Cancel())

	s.Empty(s.parent.updated)
	s.Empty(s.parent.created)
	s.Empty(s.parent.deleted)
	s.Equal(1, s.host.count())
}

func (s *SessionTestSuite) TestClosedSessionRejectsActions() {
	sess := s.open(&models.Role{Name: "GM"}, true)
	s.Require().NoError(sess.Cancel())

	s.ErrorIs(sess.Cancel(), ErrSessionClosed)
	s.ErrorIs(sess.SaveAndClose(s.ctx), ErrSessionClosed)
	s.ErrorIs(sess.CreateAndClose(s.ctx), ErrSessionClosed)
	s.ErrorIs(sess.DeleteAndClose(s.ctx), ErrSessionClosed)
	s.ErrorIs(sess.DefineRole(s.ctx), ErrSessionClosed)
	s.ErrorIs(sess.UpdatePlayers(s.ctx), ErrSessionClosed)
	s.ErrorIs(sess.SetColor("aqua"), ErrSessionClosed)

	s.Equal(1, s.host.count())
	s.Empty(s.parent.updated)
	s.Empty(s.parent.created)
	s.Empty(s.parent.deleted)
	s.Empty(s.nav.targets)
}

func (s *SessionTestSuite) TestDefineRoleNavigates() {
	sess := s.open(&models.Role{Name: "Game Master"}, true)

	s.Require().NoError(sess.DefineRole(s.ctx))

	s.Require().Len(s.parent.created, 1)
	s.Equal("Game Master", s.parent.created[0].Name)
	s.Equal([]string{"roleDefine.htm?role=Game+Master"}, s.nav.targets)
	s.Equal(StateNavigated, sess.State())
	s.Equal(0, s.host.count())
}

func (s *SessionTestSuite) TestDefineRoleWithoutNavigator() {
	sess, err := Open(s.ctx, &Config{
		Role:   &models.Role{Name: "GM"},
		IsNew:  true,
		Parent: s.parent,
		Host:   s.host,
		Roles:  s.source,
	})
	s.Require().NoError(err)
	_ = sess.Wait()

	s.ErrorIs(sess.DefineRole(s.ctx), ErrNoNavigator)
	s.Equal(StateOpen, sess.State())
	s.Empty(s.parent.created)
}

func (s *SessionTestSuite) TestLateRoleListIsDropped() {
	s.source.roles = []models.Role{{Name: "A"}}
	s.source.gate = make(chan struct{})
	s.source.ignoreCtx = true

	sess, err := Open(s.ctx, &Config{
		Role:   &models.Role{Name: "GM"},
		IsNew:  true,
		Parent: s.parent,
		Host:   s.host,
		Roles:  s.source,
		Logger: s.logger,
	})
	s.Require().NoError(err)

	s.Require().NoError(sess.Cancel())
	close(s.source.gate)
	s.NoError(sess.Wait())

	s.Empty(sess.AllRoles())
	s.Equal(0, s.logs.errors())
}

func (s *SessionTestSuite) TestFetchAbandonedOnDismissIsNotAnError() {
	s.source.gate = make(chan struct{})

	sess, err := Open(s.ctx, &Config{
		Role:   &models.Role{Name: "GM"},
		IsNew:  true,
		Parent: s.parent,
		Host:   s.host,
		Roles:  s.source,
		Logger: s.logger,
	})
	s.Require().NoError(err)

	s.Require().NoError(sess.Cancel())
	s.ErrorIs(sess.Wait(), context.Canceled)
	s.Equal(0, s.logs.errors())
}

func (s *SessionTestSuite) TestFormBindings() {
	s.source.roles = []models.Role{{Name: "A"}}
	s.source.byName["GM"] = &models.Role{Name: "GM", Players: []models.Person{s.p1}}
	sess := s.open(&models.Role{Name: "GM"}, false)

	s.ErrorIs(sess.SetName("Other"), ErrNameFixed)
	s.ErrorIs(sess.SetColor("chartreuse"), models.ErrUnknownColor)

	s.Require().NoError(sess.AddPlayer(models.Person{UID: "P1@example.com"}))
	s.Len(sess.Role().Players, 1)

	s.Require().NoError(sess.AddPlayer(s.p2))
	s.Require().NoError(sess.RemovePlayer(s.p1.UID))
	s.Equal([]models.Person{s.p2}, sess.Role().Players)
	s.ErrorIs(sess.RemovePlayer("nobody@example.com"), ErrPlayerNotFound)

	s.Require().NoError(sess.SetPlayers([]models.Person{s.p1}))
	s.Equal([]models.Person{s.p1}, sess.Role().Players)

	s.ErrorIs(sess.SelectRoleToCopy("missing"), ErrRoleNotListed)
	s.Require().NoError(sess.SelectRoleToCopy("A"))
	sess.ClearRoleToCopy()
	s.Nil(sess.RoleToCopy())
}

func (s *SessionTestSuite) TestSetNameOnNewRole() {
	sess := s.open(&models.Role{}, true)
	s.Require().NoError(sess.SetName("  Scribe "))
	s.Equal("Scribe", sess.Role().Name)
}

func (s *SessionTestSuite) TestLoadPersonListDelegates() {
	s.finder.people = []models.Person{s.p1}
	sess := s.open(&models.Role{Name: "GM"}, true)

	got, err := sess.LoadPersonList(s.ctx, "pla")
	s.Require().NoError(err)
	s.Equal([]models.Person{s.p1}, got)
	s.Equal([]string{"pla"}, s.finder.queries)
}

func (s *SessionTestSuite) TestLoadPersonListWithoutFinder() {
	sess, err := Open(s.ctx, &Config{
		Role:   &models.Role{Name: "GM"},
		IsNew:  true,
		Parent: s.parent,
		Host:   s.host,
		Roles:  s.source,
	})
	s.Require().NoError(err)
	_ = sess.Wait()

	got, err := sess.LoadPersonList(s.ctx, "anyone")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *SessionTestSuite) TestColorsIsACopy() {
	sess := s.open(&models.Role{Name: "GM"}, true)
	colors := sess.Colors()
	s.Equal(models.Palette, colors)
	colors[0] = "changed"
	s.Equal("salmon", models.Palette[0])
}

func TestDefineRoleURLEscapes(t *testing.T) {
	if got, want := DefineRoleURL("R&D lead"), "roleDefine.htm?role=R%26D+lead"; got != want {
		t.Fatalf("DefineRoleURL = %q, want %q", got, want)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateOpen:      "open",
		StateDismissed: "dismissed",
		StateNavigated: "navigated",
		State(42):      "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}
