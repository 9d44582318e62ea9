package issues_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	issuesapi "nitpickr-api/internal/api/issues"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/issues"
	"nitpickr-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(userID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.KeyUserID, userID); c.Next() })
	r.POST("/issues", issuesapi.Create)
	r.DELETE("/issues/:issueId", issuesapi.Delete)
	r.POST("/issues/comment", issuesapi.AddComment)
	r.DELETE("/issues/comment/:commentId", issuesapi.DeleteComment)
	r.POST("/issues/vote", issuesapi.Vote)
	return r
}

func do(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIssue(t *testing.T) {
	testutil.NewDB(t)
	r := router("u1")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/issues", `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/issues", `not json`).Code)

	w := do(r, http.MethodPost, "/issues", `{"realEstateId":"re1","title":" Leaky tap ","category":"Plumbing"}`,
		&http.Cookie{Name: "currentTeamId", Value: "t1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var got issues.RealEstateIssue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Leaky tap", got.Title)
	assert.Equal(t, issues.SourceUser, got.Source)
	require.NotNil(t, got.TeamID)
	assert.Equal(t, "t1", *got.TeamID)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, "u1", *got.CreatedBy)
}

func TestDeleteIssueOwnerOnly(t *testing.T) {
	db := testutil.NewDB(t)
	owner := "u1"
	issue := issues.RealEstateIssue{RealEstateID: "re1", Title: "Cracks", Source: issues.SourceUser, CreatedBy: &owner}
	require.NoError(t, db.Create(&issue).Error)
	require.NoError(t, db.Create(&issues.IssueComment{IssueID: issue.ID, Content: "hm", CreatedBy: "u2"}).Error)
	require.NoError(t, db.Create(&issues.IssueVote{IssueID: issue.ID, UserID: "u2", Vote: -1}).Error)

	ai := issues.RealEstateIssue{RealEstateID: "re1", Title: "Generated"}
	require.NoError(t, db.Create(&ai).Error)

	assert.Equal(t, http.StatusForbidden, do(router("u2"), http.MethodDelete, "/issues/"+issue.ID, "").Code)
	assert.Equal(t, http.StatusForbidden, do(router("u1"), http.MethodDelete, "/issues/"+ai.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(router("u1"), http.MethodDelete, "/issues/nope", "").Code)

	require.Equal(t, http.StatusOK, do(router("u1"), http.MethodDelete, "/issues/"+issue.ID, "").Code)

	var comments, votes int64
	require.NoError(t, db.Model(&issues.IssueComment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&issues.IssueVote{}).Count(&votes).Error)
	assert.Zero(t, comments)
	assert.Zero(t, votes)
}

func TestComments(t *testing.T) {
	db := testutil.NewDB(t)
	issue := issues.RealEstateIssue{RealEstateID: "re1", Title: "Roof"}
	require.NoError(t, db.Create(&issue).Error)

	assert.Equal(t, http.StatusBadRequest, do(router("u1"), http.MethodPost, "/issues/comment", `{"issueId":"`+issue.ID+`","text":"  "}`).Code)

	w := do(router("u1"), http.MethodPost, "/issues/comment", `{"issueId":"`+issue.ID+`","text":"Needs a look","teamId":"t1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var comment issues.IssueComment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "u1", comment.CreatedBy)

	assert.Equal(t, http.StatusForbidden, do(router("u2"), http.MethodDelete, "/issues/comment/"+comment.ID, "").Code)
	assert.Equal(t, http.StatusOK, do(router("u1"), http.MethodDelete, "/issues/comment/"+comment.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(router("u1"), http.MethodDelete, "/issues/comment/"+comment.ID, "").Code)
}

func TestVoteReplacesEarlierVote(t *testing.T) {
	db := testutil.NewDB(t)
	issue := issues.RealEstateIssue{RealEstateID: "re1", Title: "Roof"}
	require.NoError(t, db.Create(&issue).Error)
	r := router("u1")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/issues/vote", `{"issueId":"`+issue.ID+`","vote":"up"}`).Code)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/issues/vote", `{"issueId":"`+issue.ID+`","vote":1}`).Code)
	w := do(r, http.MethodPost, "/issues/vote", `{"issueId":"`+issue.ID+`","vote":-1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var vote issues.IssueVote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vote))
	assert.Equal(t, -1, vote.Vote)

	var n int64
	require.NoError(t, db.Model(&issues.IssueVote{}).Where("issue_id = ?", issue.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
