package teams

import (
	"net/http"
	"strings"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/cache"
	domain "nitpickr-api/internal/domain/teams"
	usagedomain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/infra/email"
	"nitpickr-api/internal/logger"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("teams")

// Handler serves team, member and invitation routes. Usage resolves the
// caller's tier for the team quota; Mailer sends invitations.
type Handler struct {
	Usage  *usage.Service
	Mailer email.Sender
}

func NewHandler(u *usage.Service, mailer email.Sender) *Handler {
	return &Handler{Usage: u, Mailer: mailer}
}

// List GET /teams. Cached per user; team and membership writes drop it.
func (h *Handler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var list []domain.Team
	err := cache.Queries.Remember(ctx, "teams", "list:"+userID, &list, func() error {
		var err error
		list, err = domain.ForUser(database.DB.WithContext(ctx), userID)
		return err
	})
	if err != nil {
		log.Error("Failed to list teams", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to load teams.")
		return
	}
	ok(c, http.StatusOK, list)
}

// Create POST /teams {name}
func (h *Handler) Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		fail(c, http.StatusBadRequest, "Team name is required.")
		return
	}
	name := strings.TrimSpace(body.Name)
	slug := domain.Slugify(name)
	if slug == "" {
		fail(c, http.StatusBadRequest, "Team name must contain letters or numbers.")
		return
	}

	db := database.DB.WithContext(ctx)
	taken, err := domain.SlugExists(db, slug)
	if err != nil {
		log.Error("Slug lookup failed", "slug", slug, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to create team.")
		return
	}
	if taken {
		fail(c, http.StatusBadRequest, "A team with the name already exists.")
		return
	}

	if h.Usage != nil {
		tier, err := h.Usage.TierFor(ctx, userID, usagedomain.EntityUser)
		if err != nil {
			log.Error("Tier lookup failed", "user_id", userID, "error", err)
			fail(c, http.StatusInternalServerError, "Failed to create team.")
			return
		}
		if tier != nil {
			owned, err := domain.CountOwned(db, userID)
			if err != nil {
				log.Error("Team count failed", "user_id", userID, "error", err)
				fail(c, http.StatusInternalServerError, "Failed to create team.")
				return
			}
			if owned >= int64(tier.MaxTeams) {
				fail(c, http.StatusForbidden, "You have reached the maximum number of teams for your plan.")
				return
			}
		}
	}

	team, err := domain.Create(db, name, slug, userID)
	if err != nil {
		log.Error("Team creation failed", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to create team.")
		return
	}
	log.Audit("team.created", "team_id", team.ID, "user_id", userID)
	ok(c, http.StatusCreated, team)
}

// Get GET /teams/:slug
func (h *Handler) Get(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, _, allowed := teamAccess(c, userID, domain.ResourceTeam, domain.ActionRead)
	if !allowed {
		return
	}
	ok(c, http.StatusOK, team)
}

// Update PUT /teams/:slug {name?, slug?, domain?}
func (h *Handler) Update(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, _, allowed := teamAccess(c, userID, domain.ResourceTeam, domain.ActionUpdate)
	if !allowed {
		return
	}

	var body struct {
		Name   *string `json:"name"`
		Slug   *string `json:"slug"`
		Domain *string `json:"domain"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	updates := map[string]interface{}{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			fail(c, http.StatusBadRequest, "Team name is required.")
			return
		}
		updates["name"] = name
	}
	if body.Slug != nil {
		slug := domain.Slugify(*body.Slug)
		if slug == "" {
			fail(c, http.StatusBadRequest, "Invalid slug.")
			return
		}
		if slug != team.Slug {
			taken, err := domain.SlugExists(db, slug)
			if err != nil {
				fail(c, http.StatusInternalServerError, "Failed to update team.")
				return
			}
			if taken {
				fail(c, http.StatusBadRequest, "A team with the slug already exists.")
				return
			}
			updates["slug"] = slug
		}
	}
	if body.Domain != nil {
		d := strings.ToLower(strings.TrimSpace(*body.Domain))
		if d == "" {
			updates["domain"] = nil
		} else {
			updates["domain"] = d
		}
	}

	if len(updates) > 0 {
		if err := db.Model(team).Updates(updates).Error; err != nil {
			log.Error("Team update failed", "team_id", team.ID, "error", err)
			fail(c, http.StatusInternalServerError, "Failed to update team.")
			return
		}
	}
	if err := db.First(team, "id = ?", team.ID).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update team.")
		return
	}
	log.Audit("team.updated", "team_id", team.ID, "user_id", userID)
	ok(c, http.StatusOK, team)
}

// Delete DELETE /teams/:slug
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	team, _, allowed := teamAccess(c, userID, domain.ResourceTeam, domain.ActionDelete)
	if !allowed {
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", team.ID).Delete(&domain.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(team).Error
	})
	if err != nil {
		log.Error("Team deletion failed", "team_id", team.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to delete team.")
		return
	}
	log.Audit("team.deleted", "team_id", team.ID, "user_id", userID)
	ok(c, http.StatusOK, gin.H{})
}
