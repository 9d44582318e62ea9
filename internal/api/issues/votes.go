package issues

import (
	"net/http"
	"time"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/issues"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

// Vote POST /issues/vote {issueId, vote} sets the caller's vote, replacing
// any earlier one.
func Vote(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		IssueID string      `json:"issueId"`
		Vote    interface{} `json:"vote"`
		TeamID  string      `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid parameters"})
		return
	}
	value, isNumber := body.Vote.(float64)
	if body.IssueID == "" || !isNumber {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid parameters"})
		return
	}

	vote := issues.IssueVote{
		IssueID:   body.IssueID,
		UserID:    userID,
		Vote:      int(value),
		TeamID:    teamFromRequest(c, body.TeamID),
		UpdatedAt: time.Now(),
	}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "issue_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		log.Error("Failed to upsert vote", "user_id", userID, "issue_id", body.IssueID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// On conflict the generated id is not the stored one.
	var stored issues.IssueVote
	if err := database.DB.Where("issue_id = ? AND user_id = ?", body.IssueID, userID).First(&stored).Error; err != nil {
		log.Error("Failed to reload vote", "user_id", userID, "issue_id", body.IssueID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stored)
}
