package issues

import (
	"errors"
	"net/http"
	"strings"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/issues"
	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("issues")

// teamFromRequest prefers an explicit team id and falls back to the
// currentTeamId cookie.
func teamFromRequest(c *gin.Context, explicit string) *string {
	if explicit != "" {
		return &explicit
	}
	if v, err := c.Cookie("currentTeamId"); err == nil && v != "" {
		return &v
	}
	return nil
}

// Create POST /issues adds a user-reported issue to a real estate.
func Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		RealEstateID string `json:"realEstateId"`
		Category     string `json:"category"`
		Area         string `json:"area"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Severity     string `json:"severity"`
		TeamID       string `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if body.RealEstateID == "" || strings.TrimSpace(body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}

	issue := issues.RealEstateIssue{
		RealEstateID: body.RealEstateID,
		Category:     body.Category,
		Area:         body.Area,
		Title:        strings.TrimSpace(body.Title),
		Description:  body.Description,
		Severity:     body.Severity,
		Source:       issues.SourceUser,
		CreatedBy:    &userID,
		TeamID:       teamFromRequest(c, body.TeamID),
	}
	if err := database.DB.Create(&issue).Error; err != nil {
		log.Error("Failed to create issue", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// Delete DELETE /issues/:issueId, owner only.
func Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	issueID := c.Param("issueId")
	if issueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing issueId"})
		return
	}

	var issue issues.RealEstateIssue
	err := database.DB.First(&issue, "id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		log.Error("Error loading issue", "issue_id", issueID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if issue.CreatedBy == nil || *issue.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: Only the owner can delete this issue"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", issue.ID).Delete(&issues.IssueComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", issue.ID).Delete(&issues.IssueVote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&issue).Error
	})
	if err != nil {
		log.Error("Error deleting issue", "issue_id", issueID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}
