package aiclient

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Listing is the card shape returned by the listing routes.
type Listing struct {
	ID      interface{} `json:"id"`
	Address string      `json:"address"`
	Price   interface{} `json:"price"`
	Status  string      `json:"status,omitempty"`
	Beds    *int        `json:"beds"`
	Baths   *float64    `json:"baths"`
	Garage  *int        `json:"garage,omitempty"`
	Sqft    interface{} `json:"sqft"`
	URL     string      `json:"url"`
	Image   string      `json:"image"`
	Geo     *Geo        `json:"_geo"`
	Lat     *float64    `json:"lat"`
	Lng     *float64    `json:"lng"`
}

// number accepts a JSON number or a numeric string.
type number struct {
	raw   string
	valid bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	n.raw = strings.TrimSpace(s)
	n.valid = n.raw != ""
	return nil
}

func (n number) Int() *int {
	if !n.valid {
		return nil
	}
	// Leading integer part, so "3.5" and "3 beds" read as 3.
	end := 0
	for end < len(n.raw) && (n.raw[end] >= '0' && n.raw[end] <= '9' || end == 0 && n.raw[end] == '-') {
		end++
	}
	v, err := strconv.Atoi(n.raw[:end])
	if err != nil {
		return nil
	}
	return &v
}

func (n number) Float() *float64 {
	if !n.valid {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(n.raw, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

type rawGeo struct {
	Lat number `json:"lat"`
	Lng number `json:"lng"`
}

func (g *rawGeo) geo() *Geo {
	if g == nil {
		return nil
	}
	lat, lng := g.Lat.Float(), g.Lng.Float()
	if lat == nil || lng == nil {
		return nil
	}
	return &Geo{Lat: *lat, Lng: *lng}
}

type rawListing struct {
	ID        interface{} `json:"id"`
	Address   string      `json:"address"`
	Price     interface{} `json:"price"`
	Status    string      `json:"status"`
	Beds      number      `json:"beds"`
	Baths     number      `json:"baths"`
	Sqft      number      `json:"sqft"`
	Bedrooms  number      `json:"bedrooms"`
	Bathrooms number      `json:"bathrooms"`
	Garage    number      `json:"garage"`
	Area      interface{} `json:"area"`
	URL       string      `json:"url"`
	Image     string      `json:"image"`
	Geo       *rawGeo     `json:"_geo"`
}

type searchResponse struct {
	Hits *[]rawListing `json:"hits"`
}

// fromTownFeed maps the town listing feed, where sqft carries thousands
// separators.
func (r rawListing) fromTownFeed() Listing {
	l := Listing{
		ID:      r.ID,
		Address: r.Address,
		Price:   r.Price,
		Beds:    r.Beds.Int(),
		Baths:   r.Baths.Float(),
		Sqft:    strings.ReplaceAll(r.Sqft.raw, ",", ""),
		URL:     r.URL,
		Image:   r.Image,
		Geo:     r.Geo.geo(),
	}
	l.setLatLng()
	return l
}

// fromHit maps a search hit. Geo search results also carry the status.
func (r rawListing) fromHit(withStatus bool) Listing {
	l := Listing{
		ID:      r.ID,
		Address: r.Address,
		Price:   r.Price,
		Beds:    r.Bedrooms.Int(),
		Baths:   r.Bathrooms.Float(),
		Garage:  r.Garage.Int(),
		Sqft:    r.Area,
		URL:     r.URL,
		Image:   r.Image,
		Geo:     r.Geo.geo(),
	}
	if withStatus {
		l.Status = r.Status
	}
	l.setLatLng()
	return l
}

func (l *Listing) setLatLng() {
	if l.Geo == nil {
		return
	}
	lat, lng := l.Geo.Lat, l.Geo.Lng
	l.Lat, l.Lng = &lat, &lng
}
