package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingsMapsTownFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings", r.URL.Path)
		assert.Equal(t, "Boston", r.URL.Query().Get("town"))
		_, _ = io.WriteString(w, `[{"id":1,"address":"1 Main St","price":"$500,000","beds":"3","baths":"2.5","sqft":"1,850","url":"u","image":"i","_geo":{"lat":"42.1","lng":-71.2}}]`)
	}))
	defer srv.Close()

	c := New("http://unused", srv.URL)
	got, err := c.Listings(context.Background(), "Boston")
	require.NoError(t, err)
	require.Len(t, got, 1)

	l := got[0]
	assert.Equal(t, "1 Main St", l.Address)
	assert.Equal(t, 3, *l.Beds)
	assert.Equal(t, 2.5, *l.Baths)
	assert.Equal(t, "1850", l.Sqft)
	require.NotNil(t, l.Geo)
	assert.Equal(t, 42.1, *l.Lat)
	assert.Equal(t, -71.2, *l.Lng)
}

func TestSearchSendsRawTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "3 bed near park", string(body))
		_, _ = io.WriteString(w, `{"hits":[{"id":"a","address":"2 Elm","bedrooms":4,"bathrooms":"3","garage":"2","area":2100,"status":"Active"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "http://unused")
	got, found, err := c.Search(context.Background(), "u1", "3 bed near park")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, 4, *got[0].Beds)
	assert.Equal(t, 3.0, *got[0].Baths)
	assert.Equal(t, 2, *got[0].Garage)
	assert.Equal(t, float64(2100), got[0].Sqft)
	assert.Empty(t, got[0].Status)
}

func TestSearchWithoutHitsField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	got, found, err := New(srv.URL, "").Search(context.Background(), "u1", "xx")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestGeoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q geoQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, geoQuery{Lat: 1.5, Lng: 2.5, Radius: 1000}, q)
		if q.Radius > 0 {
			_, _ = io.WriteString(w, `{"hits":[{"id":"g","status":"Pending","_geo":{"lat":1.5,"lng":2.5}}]}`)
		}
	}))
	defer srv.Close()

	got, err := New(srv.URL, "").GeoSearch(context.Background(), "u1", 1.5, 2.5, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pending", got[0].Status)
}

func TestGeoSearchNoHitsIsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":null}`)
	}))
	defer srv.Close()

	got, err := New(srv.URL, "").GeoSearch(context.Background(), "u1", 1, 1, 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.URL).Listings(context.Background(), "Boston")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}

func TestStreamNitpick(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/streaming/nitpick", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("user"))
		assert.Equal(t, "1 Main St", r.URL.Query().Get("address"))
		_, _ = io.WriteString(w, "chunk")
	}))
	defer srv.Close()

	res, err := New(srv.URL, "").StreamNitpick(context.Background(), "u1", "1 Main St")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "chunk", string(body))
}

func TestNumber(t *testing.T) {
	var n number
	require.NoError(t, json.Unmarshal([]byte(`"3 beds"`), &n))
	assert.Equal(t, 3, *n.Int())
	assert.Nil(t, n.Float())

	require.NoError(t, json.Unmarshal([]byte(`"12,500.5"`), &n))
	assert.Equal(t, 12500.5, *n.Float())

	var empty number
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Nil(t, empty.Int())
}
