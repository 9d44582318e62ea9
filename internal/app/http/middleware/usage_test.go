package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	result   usage.CheckResult
	checkErr error
	trackErr error

	checked []string
	tracked []string
}

func (f *fakeTracker) CheckUsageLimit(ctx context.Context, entityID, entityType, resourceType string) (usage.CheckResult, error) {
	f.checked = append(f.checked, entityType+":"+entityID+":"+resourceType)
	return f.result, f.checkErr
}

func (f *fakeTracker) TrackUsage(ctx context.Context, entityID, entityType, resourceType string, by int64) (int64, error) {
	f.tracked = append(f.tracked, entityType+":"+entityID+":"+resourceType)
	return 1, f.trackErr
}

func limit(n int64) *int64 { return &n }

func usageRouter(tracker UsageTracker, opts UsageOptions, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(KeyUserID, userID)
		}
		c.Next()
	})
	r.POST("/nitpick", WithAPIUsage(tracker, opts), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/geosearch", WithAPITrackingOnly(tracker, opts), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestWithAPIUsageAllowsAndTracks(t *testing.T) {
	tracker := &fakeTracker{result: usage.CheckResult{Allowed: true, CurrentUsage: 0, Limit: limit(1)}}
	r := usageRouter(tracker, UsageOptions{ResourceType: "analysis"}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nitpick", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user:u1:analysis"}, tracker.checked)
	assert.Equal(t, []string{"user:u1:analysis"}, tracker.tracked)
}

func TestWithAPIUsageQuotaJSON(t *testing.T) {
	tracker := &fakeTracker{result: usage.CheckResult{Allowed: false, CurrentUsage: 1, Limit: limit(1)}}
	r := usageRouter(tracker, UsageOptions{ResourceType: "analysis", JSONErrors: true}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nitpick", nil))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Usage limit exceeded", body["error"])
	assert.Equal(t, "QUOTA_EXCEEDED", body["code"])
	assert.Equal(t, float64(1), body["currentUsage"])
	assert.Equal(t, float64(1), body["limit"])
	assert.Equal(t, "You've used 1 of 1 allowed requests. Please upgrade your plan.", body["message"])
	assert.Empty(t, tracker.tracked)
}

func TestWithAPIUsageQuotaText(t *testing.T) {
	tracker := &fakeTracker{result: usage.CheckResult{Allowed: false, CurrentUsage: 5, Limit: limit(5)}}
	r := usageRouter(tracker, UsageOptions{}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nitpick", nil))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "429 - Usage Limit Exceeded.")
	assert.Contains(t, w.Body.String(), "You've used 5 of 5 allowed requests.")
	// Without a resource type the path is the resource.
	assert.Equal(t, []string{"user:u1:/nitpick"}, tracker.checked)
}

func TestWithAPIUsageFailsOpen(t *testing.T) {
	tracker := &fakeTracker{checkErr: errors.New("db down"), trackErr: errors.New("redis down")}
	r := usageRouter(tracker, UsageOptions{ResourceType: "analysis"}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nitpick", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnonymousCallerIsSystem(t *testing.T) {
	tracker := &fakeTracker{result: usage.CheckResult{Allowed: true}}
	r := usageRouter(tracker, UsageOptions{ResourceType: "views"}, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nitpick", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{domain.EntitySystem + ":system:views"}, tracker.checked)
}

func TestWithAPITrackingOnly(t *testing.T) {
	tracker := &fakeTracker{trackErr: errors.New("redis down")}
	r := usageRouter(tracker, UsageOptions{ResourceType: "views"}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/geosearch", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, tracker.checked)
	assert.Equal(t, []string{"user:u1:views"}, tracker.tracked)
}
