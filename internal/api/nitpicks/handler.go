package nitpicks

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/nitpicks"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("nitpicks")

// Create POST /nitpicks {realEstateId, teamId?}
func Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		RealEstateID string `json:"realEstateId"`
		TeamID       string `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RealEstateID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing realEstateId"})
		return
	}

	teamID, status, msg := resolveTeam(userID, body.TeamID)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	n := nitpicks.Nitpick{
		UserID:       userID,
		RealEstateID: body.RealEstateID,
		TeamID:       &teamID,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		log.Error("Error creating nitpick", "user_id", userID, "real_estate_id", body.RealEstateID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nitpick"})
		return
	}
	c.JSON(http.StatusCreated, n)
}

// resolveTeam picks the requested team when the caller belongs to it, or the
// caller's first team. A non-zero status means the request must stop.
func resolveTeam(userID, requested string) (teamID string, status int, msg string) {
	if requested != "" {
		_, err := teams.Membership(database.DB, requested, userID)
		switch {
		case errors.Is(err, teams.ErrNotMember):
			return "", http.StatusForbidden, "You are not a member of this team"
		case err != nil:
			log.Error("Membership lookup failed", "user_id", userID, "team_id", requested, "error", err)
			return "", http.StatusInternalServerError, "Internal Server Error"
		}
		return requested, 0, ""
	}

	m, err := teams.FirstMembership(database.DB, userID)
	switch {
	case errors.Is(err, teams.ErrNoTeam):
		return "", http.StatusBadRequest, "User is not a member of any team"
	case err != nil:
		log.Error("Membership lookup failed", "user_id", userID, "error", err)
		return "", http.StatusInternalServerError, "Internal Server Error"
	}
	return m.TeamID, 0, ""
}

// Delete DELETE /nitpicks/:id removes every nitpick the owner saved for the
// same real estate.
func Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nitpick id"})
		return
	}

	var n nitpicks.Nitpick
	err := database.DB.First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nitpick not found"})
		return
	}
	if err != nil {
		log.Error("Error loading nitpick", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	if n.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := database.DB.
		Where("user_id = ? AND real_estate_id = ?", n.UserID, n.RealEstateID).
		Delete(&nitpicks.Nitpick{}).Error; err != nil {
		log.Error("Error deleting nitpick", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Nitpick deleted successfully"})
}
