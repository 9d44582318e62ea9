package listings

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"nitpickr-api/internal/aiclient"
	"nitpickr-api/internal/app/http/middleware"
	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
)

var log = logger.New("listings")

type Handler struct {
	AI *aiclient.Client
}

func NewHandler(ai *aiclient.Client) *Handler {
	return &Handler{AI: ai}
}

// Listings GET /listings?town=
func (h *Handler) Listings(c *gin.Context) {
	town := c.Query("town")
	if len(town) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term must be at least 3 characters long"})
		return
	}

	listings, err := h.AI.Listings(c.Request.Context(), town)
	if err != nil {
		log.Error("Error fetching listings", "town", town, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings", "message": err.Error()})
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No listings found"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// Search POST /search with the raw search term as body.
func (h *Handler) Search(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	term := string(bytes.TrimSpace(raw))
	if len(term) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term must be at least 2 characters long"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	listings, found, err := h.AI.Search(c.Request.Context(), userID, term)
	if err != nil {
		log.Error("Error searching listings", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings", "message": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No listings found"})
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No hits found"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// coordinate reads a JSON number or numeric string. Zero counts as missing.
func coordinate(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, f != 0
}

// GeoSearch POST /geosearch {lat, lng, radius}
func (h *Handler) GeoSearch(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	// Clients send the body either as JSON or as a JSON-encoded string.
	var query map[string]interface{}
	if err := json.Unmarshal(raw, &query); err != nil {
		var inner string
		if json.Unmarshal(raw, &inner) != nil || json.Unmarshal([]byte(inner), &query) != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body"})
			return
		}
	}

	lat, okLat := coordinate(query["lat"])
	lng, okLng := coordinate(query["lng"])
	radius, okRadius := coordinate(query["radius"])
	if !okLat || !okLng || !okRadius {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Must include lat, lng, and radius"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	listings, err := h.AI.GeoSearch(c.Request.Context(), userID, lat, lng, radius)
	if err != nil {
		log.Error("Error in geo search", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listings)
}

var skipStreamHeaders = map[string]bool{
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Connection":        true,
	"Keep-Alive":        true,
}

// Nitpick POST /nitpick {address} streams the AI report for an address.
// The upstream request is bound to the client request and is cancelled
// when the client disconnects.
func (h *Handler) Nitpick(c *gin.Context) {
	var body struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Address) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address is required"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	res, err := h.AI.StreamNitpick(ctx, userID, body.Address)
	if err != nil {
		log.Error("Stream error", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer res.Body.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	for name, values := range res.Header {
		if skipStreamHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		c.Writer.Header()[name] = values
	}
	c.Status(res.StatusCode)
	c.Writer.WriteHeaderNow()

	buf := make([]byte, 4096)
	for {
		n, readErr := res.Body.Read(buf)
		if n > 0 {
			if _, err := c.Writer.Write(buf[:n]); err != nil {
				return
			}
			c.Writer.Flush()
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
				log.Warn("Stream interrupted", "user_id", userID, "error", readErr)
			}
			return
		}
	}
}
