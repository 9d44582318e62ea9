package billing

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/domain/teams"

	"github.com/gin-gonic/gin"
)

// TeamPortalLink POST /teams/:slug/payments/create-portal-link opens the
// portal of the team's own Stripe customer.
func (h *Handler) TeamPortalLink(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	team, member, err := teams.MemberOfSlug(database.DB, c.Param("slug"), user.ID)
	switch {
	case errors.Is(err, teams.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Team not found."}})
		return
	case errors.Is(err, teams.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "You don't have permission to do this action."}})
		return
	case err != nil:
		log.Error("Team lookup failed", "slug", c.Param("slug"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Something went wrong."}})
		return
	}
	if !teams.IsAllowed(member.Role, teams.ResourceBilling, teams.ActionRead) {
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "You don't have permission to do this action."}})
		return
	}
	if !requireStripe(c) {
		return
	}

	customerID, err := h.Customers.ForTeam(team, user.Email, user.Name)
	if err != nil {
		log.Error("Team billing customer failed", "team_id", team.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	url, err := portalURL(customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}, "error": nil})
}
