package teams

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	domain "nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Invitations GET /teams/:slug/invitations
func (h *Handler) Invitations(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, _, allowed := teamAccess(c, userID, domain.ResourceInvitations, domain.ActionRead)
	if !allowed {
		return
	}

	var list []domain.Invitation
	if err := database.DB.WithContext(c.Request.Context()).
		Where("team_id = ?", team.ID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		log.Error("Failed to list invitations", "team_id", team.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to load invitations.")
		return
	}
	ok(c, http.StatusOK, list)
}

// Invite POST /teams/:slug/invitations {email, role}
func (h *Handler) Invite(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, caller, allowed := teamAccess(c, userID, domain.ResourceInvitations, domain.ActionCreate)
	if !allowed {
		return
	}

	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body.")
		return
	}
	addr := users.NormalizeEmail(body.Email)
	if !emailPattern.MatchString(addr) {
		fail(c, http.StatusBadRequest, "A valid email is required.")
		return
	}
	role := domain.RoleMember
	if body.Role != "" {
		r, valid := domain.ParseRole(body.Role)
		if !valid {
			fail(c, http.StatusBadRequest, "Invalid role.")
			return
		}
		role = r
	}
	if !domain.CanAssignRole(caller.Role, "", role) {
		fail(c, http.StatusForbidden, msgForbidden)
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var existing int64
	if err := db.Model(&domain.Invitation{}).
		Where("team_id = ? AND email = ?", team.ID, addr).
		Count(&existing).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create invitation.")
		return
	}
	if existing > 0 {
		fail(c, http.StatusBadRequest, "An invitation already exists for this email.")
		return
	}

	inv := domain.Invitation{TeamID: team.ID, Email: addr, Role: role, InvitedBy: userID}
	if err := db.Create(&inv).Error; err != nil {
		log.Error("Failed to create invitation", "team_id", team.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to create invitation.")
		return
	}
	log.Audit("invitation.created", "team_id", team.ID, "invitation_id", inv.ID, "email", addr, "by", userID)

	h.sendInvite(db, inv, team.Name, userID)
	ok(c, http.StatusOK, inv)
}

// sendInvite mails the invitation. Failures are logged; the invitation stays.
func (h *Handler) sendInvite(db *gorm.DB, inv domain.Invitation, teamName, inviterID string) {
	if h.Mailer == nil {
		log.Warn("No mailer configured, invitation email skipped", "invitation_id", inv.ID)
		return
	}
	inviter := "A teammate"
	var u users.User
	if err := db.Select("name").First(&u, "id = ?", inviterID).Error; err == nil && u.Name != "" {
		inviter = u.Name
	}
	if err := h.Mailer.SendTeamInvite(inv.Email, teamName, inviter, inv.Token); err != nil {
		log.Error("Failed to send invitation email", "invitation_id", inv.ID, "error", err)
	}
}

// DeleteInvitation DELETE /teams/:slug/invitations {id}
func (h *Handler) DeleteInvitation(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, member, allowed := teamAccess(c, userID, domain.ResourceTeam, domain.ActionRead)
	if !allowed {
		return
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ID == "" {
		fail(c, http.StatusBadRequest, "id is required.")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var inv domain.Invitation
	err := db.Where("id = ? AND team_id = ?", body.ID, team.ID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Invitation not found.")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete invitation.")
		return
	}
	if !domain.CanDeleteInvitation(member.Role, userID, inv) {
		fail(c, http.StatusForbidden, msgForbidden)
		return
	}

	if err := db.Delete(&inv).Error; err != nil {
		log.Error("Failed to delete invitation", "invitation_id", inv.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to delete invitation.")
		return
	}
	log.Audit("invitation.removed", "team_id", team.ID, "invitation_id", inv.ID, "by", userID)
	ok(c, http.StatusOK, gin.H{})
}

// AcceptInvitation PUT /teams/:slug/invitations {inviteToken}. The caller
// joins with the invitation's role.
func (h *Handler) AcceptInvitation(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		InviteToken string `json:"inviteToken"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.InviteToken == "" {
		fail(c, http.StatusBadRequest, "inviteToken is required.")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var inv domain.Invitation
	err := db.Preload("Team").Where("token = ?", body.InviteToken).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Invitation not found.")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to accept invitation.")
		return
	}
	if slug := c.Param("slug"); slug != "" && inv.Team.Slug != slug {
		fail(c, http.StatusBadRequest, "Invitation does not belong to this team.")
		return
	}
	if inv.Expired(time.Now()) {
		fail(c, http.StatusBadRequest, "Invitation has expired.")
		return
	}

	if _, err := domain.Membership(db, inv.TeamID, userID); err == nil {
		fail(c, http.StatusBadRequest, "You are already a member of this team.")
		return
	}

	member := domain.TeamMember{TeamID: inv.TeamID, UserID: userID, Role: inv.Role}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
	if err != nil {
		log.Error("Failed to accept invitation", "invitation_id", inv.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to accept invitation.")
		return
	}
	log.Audit("member.created", "team_id", inv.TeamID, "user_id", userID, "role", inv.Role)
	ok(c, http.StatusOK, member)
}
