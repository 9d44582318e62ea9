package teams_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	teamsapi "nitpickr-api/internal/api/teams"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/testutil"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentInvite struct{ to, team, inviter, token string }

type fakeMailer struct{ invites []sentInvite }

func (m *fakeMailer) SendVerification(to, token string) error  { return nil }
func (m *fakeMailer) SendPasswordReset(to, token string) error { return nil }
func (m *fakeMailer) SendTeamInvite(to, teamName, inviterName, token string) error {
	m.invites = append(m.invites, sentInvite{to, teamName, inviterName, token})
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type env struct {
	db     *gorm.DB
	h      *teamsapi.Handler
	mailer *fakeMailer
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.NewDB(t)
	m := &fakeMailer{}
	return env{db: db, h: teamsapi.NewHandler(usage.NewService(db, nil), m), mailer: m}
}

func (e env) router(userID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.KeyUserID, userID); c.Next() })
	g := r.Group("/teams")
	g.GET("", e.h.List)
	g.POST("", e.h.Create)
	g.GET("/:slug", e.h.Get)
	g.PUT("/:slug", e.h.Update)
	g.DELETE("/:slug", e.h.Delete)
	g.GET("/:slug/members", e.h.Members)
	g.DELETE("/:slug/members", e.h.RemoveMember)
	g.PUT("/:slug/members", e.h.Leave)
	g.PATCH("/:slug/members", e.h.UpdateMemberRole)
	g.GET("/:slug/invitations", e.h.Invitations)
	g.POST("/:slug/invitations", e.h.Invite)
	g.DELETE("/:slug/invitations", e.h.DeleteInvitation)
	g.PUT("/:slug/invitations", e.h.AcceptInvitation)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (e env) join(t *testing.T, teamID, userID string, role teams.Role) {
	t.Helper()
	require.NoError(t, e.db.Create(&teams.TeamMember{TeamID: teamID, UserID: userID, Role: role}).Error)
}

func TestCreateTeam(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	r := e.router(owner.ID)

	code, out := call(t, r, http.MethodPost, "/teams", `{"name":"Acme Homes"}`)
	require.Equal(t, http.StatusCreated, code)
	var team teams.Team
	require.NoError(t, json.Unmarshal(out.Data, &team))
	assert.Equal(t, "acme-homes", team.Slug)

	m, err := teams.Membership(e.db, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, teams.RoleOwner, m.Role)

	// The basic tier allows a single owned team.
	code, out = call(t, r, http.MethodPost, "/teams", `{"name":"Second"}`)
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, out.Error)

	other := testutil.CreateUser(t, e.db, "other@example.com")
	code, out = call(t, e.router(other.ID), http.MethodPost, "/teams", `{"name":"acme homes"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "A team with the name already exists.", out.Error.Message)

	code, _ = call(t, r, http.MethodPost, "/teams", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTeamAccess(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	member := testutil.CreateUser(t, e.db, "member@example.com")
	stranger := testutil.CreateUser(t, e.db, "stranger@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	e.join(t, team.ID, member.ID, teams.RoleMember)

	code, _ := call(t, e.router(stranger.ID), http.MethodGet, "/teams/acme", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, out := call(t, e.router(owner.ID), http.MethodGet, "/teams/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Team not found.", out.Error.Message)

	code, _ = call(t, e.router(member.ID), http.MethodGet, "/teams/acme", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, e.router(member.ID), http.MethodPut, "/teams/acme", `{"name":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, e.router(member.ID), http.MethodDelete, "/teams/acme", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, out = call(t, e.router(member.ID), http.MethodGet, "/teams", "")
	require.Equal(t, http.StatusOK, code)
	var list []teams.Team
	require.NoError(t, json.Unmarshal(out.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "acme", list[0].Slug)
}

func TestUpdateAndDeleteTeam(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	_, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	_, err = teams.Create(e.db, "Taken", "taken", owner.ID)
	require.NoError(t, err)
	r := e.router(owner.ID)

	code, _ := call(t, r, http.MethodPut, "/teams/acme", `{"slug":"taken"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out := call(t, r, http.MethodPut, "/teams/acme", `{"name":"Acme Realty","slug":"Acme Realty","domain":"Acme.com"}`)
	require.Equal(t, http.StatusOK, code)
	var team teams.Team
	require.NoError(t, json.Unmarshal(out.Data, &team))
	assert.Equal(t, "Acme Realty", team.Name)
	assert.Equal(t, "acme-realty", team.Slug)
	require.NotNil(t, team.Domain)
	assert.Equal(t, "acme.com", *team.Domain)

	code, _ = call(t, r, http.MethodDelete, "/teams/acme-realty", "")
	require.Equal(t, http.StatusOK, code)
	_, err = teams.BySlug(e.db, "acme-realty")
	assert.ErrorIs(t, err, teams.ErrNotFound)

	var members int64
	require.NoError(t, e.db.Model(&teams.TeamMember{}).Where("team_id = ?", team.ID).Count(&members).Error)
	assert.Zero(t, members)
}

func TestMembers(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	member := testutil.CreateUser(t, e.db, "member@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	e.join(t, team.ID, member.ID, teams.RoleMember)

	code, out := call(t, e.router(member.ID), http.MethodGet, "/teams/acme/members", "")
	require.Equal(t, http.StatusOK, code)
	var list []teams.TeamMember
	require.NoError(t, json.Unmarshal(out.Data, &list))
	assert.Len(t, list, 2)

	// Members cannot manage other members.
	code, _ = call(t, e.router(member.ID), http.MethodDelete, "/teams/acme/members", `{"memberId":"`+owner.ID+`"}`)
	assert.Equal(t, http.StatusForbidden, code)

	// The only owner can neither leave nor be demoted.
	code, out = call(t, e.router(owner.ID), http.MethodPut, "/teams/acme/members", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "A team must have at least one owner.", out.Error.Message)
	code, _ = call(t, e.router(owner.ID), http.MethodPatch, "/teams/acme/members", `{"memberId":"`+owner.ID+`","role":"MEMBER"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, e.router(owner.ID), http.MethodPatch, "/teams/acme/members", `{"memberId":"`+member.ID+`","role":"boss"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, e.router(owner.ID), http.MethodPatch, "/teams/acme/members", `{"memberId":"`+member.ID+`","role":"admin"}`)
	require.Equal(t, http.StatusOK, code)
	var updated teams.TeamMember
	require.NoError(t, json.Unmarshal(out.Data, &updated))
	assert.Equal(t, teams.RoleAdmin, updated.Role)

	code, _ = call(t, e.router(member.ID), http.MethodPut, "/teams/acme/members", "")
	require.Equal(t, http.StatusOK, code)
	_, err = teams.Membership(e.db, team.ID, member.ID)
	assert.ErrorIs(t, err, teams.ErrNotMember)

	code, _ = call(t, e.router(owner.ID), http.MethodDelete, "/teams/acme/members", `{"memberId":"`+member.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInvitationFlow(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	invitee := testutil.CreateUser(t, e.db, "new@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)

	code, _ := call(t, e.router(owner.ID), http.MethodPost, "/teams/acme/invitations", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out := call(t, e.router(owner.ID), http.MethodPost, "/teams/acme/invitations", `{"email":"New@Example.com","role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, code)
	var inv teams.Invitation
	require.NoError(t, json.Unmarshal(out.Data, &inv))
	assert.Equal(t, "new@example.com", inv.Email)
	assert.Equal(t, teams.RoleAdmin, inv.Role)

	require.Len(t, e.mailer.invites, 1)
	assert.Equal(t, sentInvite{"new@example.com", "Acme", owner.Name, inv.Token}, e.mailer.invites[0])

	code, _ = call(t, e.router(owner.ID), http.MethodPost, "/teams/acme/invitations", `{"email":"new@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, e.router(owner.ID), http.MethodGet, "/teams/acme/invitations", "")
	require.Equal(t, http.StatusOK, code)
	var pending []teams.Invitation
	require.NoError(t, json.Unmarshal(out.Data, &pending))
	assert.Len(t, pending, 1)

	code, _ = call(t, e.router(invitee.ID), http.MethodPut, "/teams/other/invitations", `{"inviteToken":"`+inv.Token+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, e.router(invitee.ID), http.MethodPut, "/teams/acme/invitations", `{"inviteToken":"`+inv.Token+`"}`)
	require.Equal(t, http.StatusOK, code)
	m, err := teams.Membership(e.db, team.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, teams.RoleAdmin, m.Role)

	code, _ = call(t, e.router(invitee.ID), http.MethodPut, "/teams/acme/invitations", `{"inviteToken":"`+inv.Token+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	invitee := testutil.CreateUser(t, e.db, "late@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)

	inv := teams.Invitation{TeamID: team.ID, Email: invitee.Email, InvitedBy: owner.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, e.db.Create(&inv).Error)

	code, out := call(t, e.router(invitee.ID), http.MethodPut, "/teams/acme/invitations", `{"inviteToken":"`+inv.Token+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invitation has expired.", out.Error.Message)
}

func TestDeleteInvitation(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	member := testutil.CreateUser(t, e.db, "member@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	e.join(t, team.ID, member.ID, teams.RoleMember)

	inv := teams.Invitation{TeamID: team.ID, Email: "x@example.com", InvitedBy: owner.ID}
	require.NoError(t, e.db.Create(&inv).Error)

	code, _ := call(t, e.router(member.ID), http.MethodDelete, "/teams/acme/invitations", `{"id":"`+inv.ID+`"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, e.router(owner.ID), http.MethodDelete, "/teams/acme/invitations", `{"id":"`+inv.ID+`"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = call(t, e.router(owner.ID), http.MethodDelete, "/teams/acme/invitations", `{"id":"`+inv.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminCannotTouchOwnerRole(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	admin := testutil.CreateUser(t, e.db, "admin@example.com")
	member := testutil.CreateUser(t, e.db, "member@example.com")
	team, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	e.join(t, team.ID, admin.ID, teams.RoleAdmin)
	e.join(t, team.ID, member.ID, teams.RoleMember)
	r := e.router(admin.ID)

	code, _ := call(t, r, http.MethodDelete, "/teams/acme", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPatch, "/teams/acme/members", `{"memberId":"`+admin.ID+`","role":"OWNER"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, r, http.MethodPatch, "/teams/acme/members", `{"memberId":"`+owner.ID+`","role":"MEMBER"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, r, http.MethodDelete, "/teams/acme/members", `{"memberId":"`+owner.ID+`"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, r, http.MethodPost, "/teams/acme/invitations", `{"email":"boss@example.com","role":"OWNER"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Empty(t, e.mailer.invites)

	m, err := teams.Membership(e.db, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, teams.RoleOwner, m.Role)
	m, err = teams.Membership(e.db, team.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, teams.RoleAdmin, m.Role)

	// Non-owner roles stay manageable by admins.
	code, _ = call(t, r, http.MethodPatch, "/teams/acme/members", `{"memberId":"`+member.ID+`","role":"ADMIN"}`)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodPost, "/teams/acme/invitations", `{"email":"helper@example.com","role":"MEMBER"}`)
	assert.Equal(t, http.StatusOK, code)

	// The owner can hand the role over.
	code, _ = call(t, e.router(owner.ID), http.MethodPatch, "/teams/acme/members", `{"memberId":"`+admin.ID+`","role":"OWNER"}`)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodDelete, "/teams/acme", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestListTeamsIsCached(t *testing.T) {
	e := newEnv(t)
	store, mr := testutil.NewRedis(t)
	q := cache.NewQueryCache(store, time.Minute, true, "teams").Link("team_members", "teams")
	require.NoError(t, e.db.Use(q))
	prev := cache.Queries
	cache.Queries = q
	t.Cleanup(func() { cache.Queries = prev })

	owner := testutil.CreateUser(t, e.db, "owner@example.com")
	_, err := teams.Create(e.db, "Acme", "acme", owner.ID)
	require.NoError(t, err)
	r := e.router(owner.ID)

	list := func() []teams.Team {
		code, out := call(t, r, http.MethodGet, "/teams", "")
		require.Equal(t, http.StatusOK, code)
		var got []teams.Team
		require.NoError(t, json.Unmarshal(out.Data, &got))
		return got
	}

	require.Len(t, list(), 1)
	assert.True(t, mr.Exists("db:teams:list:"+owner.ID), mr.Keys())

	// A write through the API drops the entry.
	code, _ := call(t, r, http.MethodPut, "/teams/acme", `{"name":"Acme Realty"}`)
	require.Equal(t, http.StatusOK, code)
	got := list()
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Realty", got[0].Name)

	// So does a membership change.
	other, err := teams.Create(e.db, "Other", "other", testutil.CreateUser(t, e.db, "x@example.com").ID)
	require.NoError(t, err)
	e.join(t, other.ID, owner.ID, teams.RoleMember)
	assert.Len(t, list(), 2)
}
