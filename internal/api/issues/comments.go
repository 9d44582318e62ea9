package issues

import (
	"errors"
	"net/http"
	"strings"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/issues"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AddComment POST /issues/comment {issueId, text, teamId?}
func AddComment(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		IssueID string `json:"issueId"`
		Text    string `json:"text"`
		TeamID  string `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IssueID == "" || strings.TrimSpace(body.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}

	comment := issues.IssueComment{
		IssueID:   body.IssueID,
		Content:   body.Text,
		CreatedBy: userID,
		TeamID:    teamFromRequest(c, body.TeamID),
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		log.Error("Failed to add comment", "user_id", userID, "issue_id", body.IssueID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment DELETE /issues/comment/:commentId, author only.
func DeleteComment(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	commentID := c.Param("commentId")
	if commentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing commentId"})
		return
	}

	var comment issues.IssueComment
	err := database.DB.First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		log.Error("Error loading comment", "comment_id", commentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if comment.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You are not the owner of this comment"})
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		log.Error("Error deleting comment", "comment_id", commentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
