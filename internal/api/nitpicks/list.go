package nitpicks

import (
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/domain/issues"
	"nitpickr-api/internal/domain/nitpicks"
	"nitpickr-api/internal/domain/realestate"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IssueView struct {
	issues.RealEstateIssue
	Votes issues.Tally `json:"votes"`
}

// Card is a saved property as the team workspace shows it.
type Card struct {
	realestate.Card
	Issues []IssueView `json:"issues"`
}

// List GET /nitpicks?teamId= returns the team's saved properties with their
// issues, comments and vote tallies. Without teamId the currentTeamId cookie
// or the caller's first team is used.
func List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	requested := c.Query("teamId")
	if requested == "" {
		requested, _ = c.Cookie("currentTeamId")
	}
	teamID, status, msg := resolveTeam(userID, requested)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var saved []nitpicks.Nitpick
	if err := database.DB.
		Preload("RealEstate").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&saved).Error; err != nil {
		log.Error("Error listing nitpicks", "team_id", teamID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	ids := make([]string, 0, len(saved))
	for _, n := range saved {
		ids = append(ids, n.RealEstateID)
	}
	byEstate, err := teamIssues(ids, teamID, userID)
	if err != nil {
		log.Error("Error loading issues", "team_id", teamID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	cards := make([]Card, 0, len(saved))
	for _, n := range saved {
		if n.RealEstate == nil {
			continue
		}
		list := byEstate[n.RealEstateID]
		if list == nil {
			list = []IssueView{}
		}
		cards = append(cards, Card{
			Card:   realestate.NewCard(*n.RealEstate, n.ID, n.CreatedAt),
			Issues: list,
		})
	}
	c.JSON(http.StatusOK, cards)
}

// teamIssues loads the AI issues and the team's own issues of the given real
// estates, with the team's comments and all votes.
func teamIssues(realEstateIDs []string, teamID, userID string) (map[string][]IssueView, error) {
	out := map[string][]IssueView{}
	if len(realEstateIDs) == 0 {
		return out, nil
	}

	var list []issues.RealEstateIssue
	err := database.DB.
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Where("team_id IS NULL OR team_id = ?", teamID).Order("created_at ASC")
		}).
		Preload("Votes").
		Where("real_estate_id IN ?", realEstateIDs).
		Where("team_id IS NULL OR team_id = ?", teamID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	for _, is := range list {
		out[is.RealEstateID] = append(out[is.RealEstateID], IssueView{
			RealEstateIssue: is,
			Votes:           issues.TallyVotes(is.Votes, userID),
		})
	}
	return out, nil
}
