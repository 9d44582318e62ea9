package listings

import (
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/nitpicks"
	"nitpickr-api/internal/domain/realestate"

	"github.com/gin-gonic/gin"
)

const historyLimit = 50

type HistoryItem struct {
	realestate.RealEstate
	UserFlag    int    `json:"userFlag"`
	LastCreated string `json:"lastCreated"`
}

// History POST /history returns the nitpicked real estates, one entry per
// property: the caller's own first, then the most recently saved.
func History(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var rows []struct {
		RealEstateID string
		UserFlag     int
		LastCreated  string
	}
	err := database.DB.Model(&nitpicks.Nitpick{}).
		Select("real_estate_id, MIN(CASE WHEN user_id = ? THEN 0 ELSE 1 END) AS user_flag, MAX(created_at) AS last_created", userID).
		Group("real_estate_id").
		Order("user_flag, last_created DESC").
		Limit(historyLimit).
		Scan(&rows).Error
	if err != nil {
		log.Error("Error fetching history", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RealEstateID)
	}

	var estates []realestate.RealEstate
	if len(ids) > 0 {
		if err := database.DB.Where("id IN ?", ids).Find(&estates).Error; err != nil {
			log.Error("Error fetching real estates", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	byID := make(map[string]realestate.RealEstate, len(estates))
	for _, e := range estates {
		byID[e.ID] = e
	}

	items := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		e, ok := byID[r.RealEstateID]
		if !ok {
			continue
		}
		items = append(items, HistoryItem{RealEstate: e, UserFlag: r.UserFlag, LastCreated: r.LastCreated})
	}
	c.JSON(http.StatusOK, items)
}
