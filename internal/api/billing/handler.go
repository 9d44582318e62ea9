package billing

import (
	"errors"
	"net/http"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/users"
	stripeinfra "nitpickr-api/internal/infra/stripe"
	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("billing")

type Handler struct {
	Customers *stripeinfra.Customers
}

func NewHandler(customers *stripeinfra.Customers) *Handler {
	return &Handler{Customers: customers}
}

func returnURL() string {
	return config.APP_URL + "/settings/subscription"
}

// currentUser loads the caller. On failure it has already responded.
func currentUser(c *gin.Context) (*users.User, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return nil, false
	}
	var user users.User
	err := database.DB.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		log.Error("Error loading user", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &user, true
}

func requireStripe(c *gin.Context) bool {
	if !stripeinfra.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return false
	}
	return true
}
