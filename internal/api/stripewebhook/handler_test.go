package stripewebhooks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/internal/billing"
	domain "nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/tiers"
	stripeinfra "nitpickr-api/internal/infra/stripe"
	"nitpickr-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "jo@example.com")
	require.NoError(t, db.Model(&u).Update("billing_id", "cus_1").Error)

	amt := decimal.NewFromInt(29)
	require.NoError(t, db.Create(&domain.Service{ID: "prod_pro", Name: "Pro"}).Error)
	require.NoError(t, db.Create(&domain.Price{ID: "price_pro", ServiceID: "prod_pro", Amount: &amt}).Error)
	return db
}

func subscriptionJSON(id, customer, status string) json.RawMessage {
	return json.RawMessage(`{
		"id": "` + id + `",
		"object": "subscription",
		"customer": "` + customer + `",
		"status": "` + status + `",
		"current_period_start": ` + jsonInt(time.Now().Add(-time.Hour).Unix()) + `,
		"current_period_end": ` + jsonInt(time.Now().Add(720*time.Hour).Unix()) + `,
		"items": {"object": "list", "data": [{"id": "si_1", "price": {"id": "price_pro"}}]}
	}`)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func dispatch(eventType string, raw json.RawMessage) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", nil)
	handleEvent(c, stripe.Event{ID: "evt_1", Type: stripe.EventType(eventType), Data: &stripe.EventData{Raw: raw}})
	return w
}

func TestSubscriptionLifecycle(t *testing.T) {
	db := setup(t)

	w := dispatch("customer.subscription.created", subscriptionJSON("sub_1", "cus_1", "active"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")

	var sub domain.Subscription
	require.NoError(t, db.First(&sub, "id = ?", "sub_1").Error)
	assert.True(t, sub.Active)
	require.NotNil(t, sub.TierID)
	assert.Equal(t, tiers.ProTierID, *sub.TierID)

	w = dispatch("customer.subscription.updated", subscriptionJSON("sub_1", "cus_1", "past_due"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&sub, "id = ?", "sub_1").Error)
	assert.False(t, sub.Active)
	assert.Equal(t, "past_due", sub.Status)

	w = dispatch("customer.subscription.deleted", subscriptionJSON("sub_1", "cus_1", "canceled"))
	require.Equal(t, http.StatusOK, w.Code)
	_, err := billing.ActiveForUser(db, *sub.UserID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	var n int64
	require.NoError(t, db.Model(&domain.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUnknownCustomerIsAcknowledged(t *testing.T) {
	db := setup(t)

	w := dispatch("customer.subscription.updated", subscriptionJSON("sub_9", "cus_unknown", "active"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	var n int64
	require.NoError(t, db.Model(&domain.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUnhandledAndMalformedEvents(t *testing.T) {
	setup(t)

	w := dispatch("invoice.paid", json.RawMessage(`{}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	w = dispatch("customer.subscription.updated", json.RawMessage(`[1,2]`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	prevKey, prevSecret := stripe.Key, config.STRIPE_WEBHOOK_SECRET
	t.Cleanup(func() {
		stripe.Key = prevKey
		config.STRIPE_WEBHOOK_SECRET = prevSecret
	})

	r := gin.New()
	r.POST("/webhook", StripeWebhook)
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"id":"evt_1"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	stripe.Key = ""
	assert.Equal(t, http.StatusInternalServerError, post().Code)

	stripeinfra.Init("sk_test_123")
	config.STRIPE_WEBHOOK_SECRET = "whsec_test"
	assert.Equal(t, http.StatusBadRequest, post().Code)
}
