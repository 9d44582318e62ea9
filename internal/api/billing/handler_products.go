package billing

import (
	"net/http"
	"sort"

	"nitpickr-api/database"
	domain "nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/tiers"

	"github.com/gin-gonic/gin"
)

type SubscriptionView struct {
	domain.Subscription
	Product *domain.Service `json:"product"`
	Price   *domain.Price   `json:"price"`
}

func productRank(name string) int {
	for i, n := range tiers.ProductOrder {
		if n == name {
			return i
		}
	}
	return len(tiers.ProductOrder)
}

// SortProducts orders products Basic, Pro, Premium; others keep their order
// after them.
func SortProducts(products []domain.Service) {
	sort.SliceStable(products, func(i, j int) bool {
		return productRank(products[i].Name) < productRank(products[j].Name)
	})
}

// Products GET /payments/products
func (h *Handler) Products(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var products []domain.Service
	if err := database.DB.Preload("Prices").Find(&products).Error; err != nil {
		log.Error("Error loading products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Something went wrong"}})
		return
	}
	SortProducts(products)

	var tierList []tiers.Tier
	if err := database.DB.Order("price ASC").Find(&tierList).Error; err != nil {
		log.Error("Error loading tiers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Something went wrong"}})
		return
	}

	// Subscriptions are looked up by customer, so a user without one yet
	// simply has none.
	subs := []SubscriptionView{}
	if user.BillingID != nil && *user.BillingID != "" {
		var rows []domain.Subscription
		if err := database.DB.Preload("Tier").Where("customer_id = ?", *user.BillingID).Find(&rows).Error; err != nil {
			log.Error("Error loading subscriptions", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Something went wrong"}})
			return
		}
		subs = subscriptionViews(rows, products)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"products":      products,
		"subscriptions": subs,
		"tiers":         tierList,
	}})
}

// subscriptionViews attaches product and price; subscriptions on unknown
// prices are dropped.
func subscriptionViews(rows []domain.Subscription, products []domain.Service) []SubscriptionView {
	out := make([]SubscriptionView, 0, len(rows))
	for _, s := range rows {
		var view *SubscriptionView
		for pi := range products {
			for qi := range products[pi].Prices {
				if products[pi].Prices[qi].ID != s.PriceID {
					continue
				}
				view = &SubscriptionView{Subscription: s, Product: &products[pi], Price: &products[pi].Prices[qi]}
			}
		}
		if view != nil {
			out = append(out, *view)
		}
	}
	return out
}
