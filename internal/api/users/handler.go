package users

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/billing"
	usagedomain "nitpickr-api/internal/domain/usage"
	domain "nitpickr-api/internal/domain/users"
	"nitpickr-api/internal/logger"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("users")

type Handler struct {
	Usage *usage.Service
}

func NewHandler(u *usage.Service) *Handler {
	return &Handler{Usage: u}
}

// GET /me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	ctx := c.Request.Context()

	var user domain.User
	if err := database.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	teamList, err := loadTeams(ctx, user.ID)
	if err != nil {
		log.Error("Failed to load teams", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load teams"})
		return
	}

	sub, err := billing.ActiveForUser(database.DB.WithContext(ctx), user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Failed to load subscription", "user_id", user.ID, "error", err)
	}

	resp := MeResponse{
		User:         BuildUserDTO(user),
		Teams:        teamList,
		Subscription: BuildSubscriptionDTO(sub),
	}

	if h.Usage != nil {
		tier, err := h.Usage.TierFor(ctx, user.ID, usagedomain.EntityUser)
		if err != nil {
			log.Warn("Failed to resolve tier", "user_id", user.ID, "error", err)
		}
		resp.Tier = tier
	}
	resp.Usage = buildUsage(ctx, h.Usage, user.ID, resp.Tier)

	c.JSON(http.StatusOK, resp)
}
