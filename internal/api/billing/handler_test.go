package billing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	billingapi "nitpickr-api/internal/api/billing"
	"nitpickr-api/internal/app/http/middleware"
	domain "nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/tiers"
	"nitpickr-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSortProducts(t *testing.T) {
	products := []domain.Service{{Name: "Enterprise"}, {Name: "Premium"}, {Name: "Basic"}, {Name: "Add-on"}, {Name: "Pro"}}
	billingapi.SortProducts(products)

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Basic", "Pro", "Premium", "Enterprise", "Add-on"}, names)
}

func TestIsUpgrade(t *testing.T) {
	pro := domain.Price{ID: "pro", Amount: amount("29")}
	premium := domain.Price{ID: "premium", Amount: amount("49")}
	free := domain.Price{ID: "free"}

	assert.True(t, billingapi.IsUpgrade(pro, premium))
	assert.False(t, billingapi.IsUpgrade(premium, pro))
	assert.False(t, billingapi.IsUpgrade(pro, pro))
	assert.True(t, billingapi.IsUpgrade(free, pro))
}

func serve(h gin.HandlerFunc, method, userID string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.KeyUserID, userID)
		}
		c.Next()
	})
	r.Handle(method, "/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/", nil))
	return w
}

func TestProducts(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "jo@example.com")
	require.NoError(t, db.Model(&u).Update("billing_id", "cus_1").Error)

	require.NoError(t, db.Create(&domain.Service{ID: "prod_premium", Name: "Premium"}).Error)
	require.NoError(t, db.Create(&domain.Service{ID: "prod_pro", Name: "Pro"}).Error)
	require.NoError(t, db.Create(&domain.Price{ID: "price_pro", ServiceID: "prod_pro", Amount: amount("29")}).Error)
	tierID := tiers.ProTierID
	require.NoError(t, db.Create(&domain.Subscription{ID: "sub_1", CustomerID: "cus_1", PriceID: "price_pro", TierID: &tierID, UserID: &u.ID, Active: true}).Error)
	require.NoError(t, db.Create(&domain.Subscription{ID: "sub_legacy", CustomerID: "cus_1", PriceID: "price_gone", UserID: &u.ID}).Error)

	h := billingapi.NewHandler(nil)
	assert.Equal(t, http.StatusUnauthorized, serve(h.Products, http.MethodGet, "").Code)

	w := serve(h.Products, http.MethodGet, u.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Data struct {
			Products      []domain.Service               `json:"products"`
			Subscriptions []billingapi.SubscriptionView `json:"subscriptions"`
			Tiers         []tiers.Tier                   `json:"tiers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	require.Len(t, out.Data.Products, 2)
	assert.Equal(t, "Pro", out.Data.Products[0].Name)
	assert.Equal(t, "Premium", out.Data.Products[1].Name)

	require.Len(t, out.Data.Subscriptions, 1)
	assert.Equal(t, "sub_1", out.Data.Subscriptions[0].ID)
	require.NotNil(t, out.Data.Subscriptions[0].Product)
	assert.Equal(t, "prod_pro", out.Data.Subscriptions[0].Product.ID)

	require.Len(t, out.Data.Tiers, 3)
	assert.Equal(t, tiers.BasicTierID, out.Data.Tiers[0].ID)
}

func TestCancelDowngradeWithoutPending(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "jo@example.com")

	w := serve(billingapi.NewHandler(nil).CancelDowngrade, http.MethodPost, u.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No pending downgrade")
}
