package teams

import (
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	domain "nitpickr-api/internal/domain/teams"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Members GET /teams/:slug/members
func (h *Handler) Members(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, _, allowed := teamAccess(c, userID, domain.ResourceMembers, domain.ActionRead)
	if !allowed {
		return
	}

	var members []domain.TeamMember
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("User").
		Where("team_id = ?", team.ID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		log.Error("Failed to list members", "team_id", team.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to load members.")
		return
	}
	ok(c, http.StatusOK, members)
}

// RemoveMember DELETE /teams/:slug/members {memberId}. memberId is the
// member's user id.
func (h *Handler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, caller, allowed := teamAccess(c, userID, domain.ResourceMembers, domain.ActionDelete)
	if !allowed {
		return
	}

	var body struct {
		MemberID string `json:"memberId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.MemberID == "" {
		fail(c, http.StatusBadRequest, "memberId is required.")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	target, err := domain.Membership(db, team.ID, body.MemberID)
	if err != nil {
		fail(c, http.StatusNotFound, "Member not found.")
		return
	}
	if !domain.CanAssignRole(caller.Role, target.Role, "") {
		fail(c, http.StatusForbidden, msgForbidden)
		return
	}
	if target.Role == domain.RoleOwner {
		if last, err := lastOwner(db, team.ID); err != nil || last {
			fail(c, http.StatusBadRequest, "A team must have at least one owner.")
			return
		}
	}

	if err := db.Delete(target).Error; err != nil {
		log.Error("Failed to remove member", "team_id", team.ID, "member_id", body.MemberID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to remove member.")
		return
	}
	log.Audit("member.removed", "team_id", team.ID, "user_id", body.MemberID, "by", userID)
	ok(c, http.StatusOK, gin.H{})
}

// Leave PUT /teams/:slug/members
func (h *Handler) Leave(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, member, allowed := teamAccess(c, userID, domain.ResourceTeam, domain.ActionLeave)
	if !allowed {
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	if member.Role == domain.RoleOwner {
		if last, err := lastOwner(db, team.ID); err != nil || last {
			fail(c, http.StatusBadRequest, "A team must have at least one owner.")
			return
		}
	}

	if err := db.Delete(member).Error; err != nil {
		log.Error("Failed to leave team", "team_id", team.ID, "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to leave team.")
		return
	}
	log.Audit("member.removed", "team_id", team.ID, "user_id", userID, "by", userID)
	ok(c, http.StatusOK, gin.H{})
}

// UpdateMemberRole PATCH /teams/:slug/members {memberId, role}
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, caller, allowed := teamAccess(c, userID, domain.ResourceMembers, domain.ActionUpdate)
	if !allowed {
		return
	}

	var body struct {
		MemberID string `json:"memberId"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.MemberID == "" {
		fail(c, http.StatusBadRequest, "memberId is required.")
		return
	}
	role, valid := domain.ParseRole(body.Role)
	if !valid {
		fail(c, http.StatusBadRequest, "Invalid role.")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	target, err := domain.Membership(db, team.ID, body.MemberID)
	if err != nil {
		fail(c, http.StatusNotFound, "Member not found.")
		return
	}
	if !domain.CanAssignRole(caller.Role, target.Role, role) {
		fail(c, http.StatusForbidden, msgForbidden)
		return
	}
	if target.Role == domain.RoleOwner && role != domain.RoleOwner {
		if last, err := lastOwner(db, team.ID); err != nil || last {
			fail(c, http.StatusBadRequest, "A team must have at least one owner.")
			return
		}
	}

	if err := db.Model(target).Update("role", role).Error; err != nil {
		log.Error("Failed to update role", "team_id", team.ID, "member_id", body.MemberID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to update member.")
		return
	}
	target.Role = role
	log.Audit("member.updated", "team_id", team.ID, "user_id", body.MemberID, "role", role, "by", userID)
	ok(c, http.StatusOK, target)
}

func lastOwner(db *gorm.DB, teamID string) (bool, error) {
	var n int64
	err := db.Model(&domain.TeamMember{}).
		Where("team_id = ? AND role = ?", teamID, domain.RoleOwner).
		Count(&n).Error
	return n <= 1, err
}
