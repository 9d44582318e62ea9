package teams

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	domain "nitpickr-api/internal/domain/teams"

	"github.com/gin-gonic/gin"
)

const msgForbidden = "You don't have permission to do this action."

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data, "error": nil})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"data": nil, "error": gin.H{"message": message}})
}

// teamAccess loads the team named by :slug and checks that the caller's role
// allows action on resource. On failure it has already responded.
func teamAccess(c *gin.Context, userID string, resource domain.Resource, action domain.Action) (*domain.Team, *domain.TeamMember, bool) {
	team, member, err := domain.MemberOfSlug(database.DB.WithContext(c.Request.Context()), c.Param("slug"), userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "Team not found.")
		return nil, nil, false
	case errors.Is(err, domain.ErrNotMember):
		fail(c, http.StatusForbidden, msgForbidden)
		return nil, nil, false
	case err != nil:
		log.Error("Team lookup failed", "slug", c.Param("slug"), "error", err)
		fail(c, http.StatusInternalServerError, "Something went wrong.")
		return nil, nil, false
	}
	if !domain.IsAllowed(member.Role, resource, action) {
		fail(c, http.StatusForbidden, msgForbidden)
		return nil, nil, false
	}
	return team, member, true
}
