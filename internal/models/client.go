package models

import (
	"strings"
	"time"
)

// Client represents a customer site that jobs are performed for.
type Client struct {
	// ID is the opaque unique identifier, assigned on first save and never changed.
	ID string `json:"id"`

	// Name is the display name of the client (e.g., "Fremantle Medical Centre").
	// Required by the forms, not enforced by the repository.
	Name string `json:"name"`

	// Contact is the name of the person to ask for on site.
	Contact string `json:"contact"`

	Phone string `json:"phone"`
	Email string `json:"email"`

	// Address is the street line; Suburb and Postcode complete it.
	Address  string `json:"address"`
	Suburb   string `json:"suburb"`
	Postcode string `json:"postcode"`

	// Lat and Lng are set together by the geocoder, or both left nil.
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`

	// Tags are free-text labels in display order (e.g., "Corporate", "Priority").
	Tags []string `json:"tags"`

	Notes string `json:"notes"`

	// CreatedAt is when the client was first saved.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed on every save.
	UpdatedAt time.Time `json:"updatedAt"`
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewClient returns a client with the given name and every list initialized.
func NewClient(name string) *Client {
	c := &Client{Name: name}
	c.Normalize()
	return c
}

// Normalize replaces nil lists with empty ones.
func (c *Client) Normalize() {
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

// Location returns the client's coordinates when both are known.
func (c *Client) Location() (GeoPoint, bool) {
	if c.Lat == nil || c.Lng == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *c.Lat, Lng: *c.Lng}, true
}

// SetLocation stores p as the client's coordinates. A nil p clears them.
func (c *Client) SetLocation(p *GeoPoint) {
	if p == nil {
		c.Lat, c.Lng = nil, nil
		return
	}
	lat, lng := p.Lat, p.Lng
	c.Lat, c.Lng = &lat, &lng
}

// FullAddress renders the address the way it is snapshotted onto jobs,
// e.g. "12 High Street, Fremantle WA 6160".
func (c *Client) FullAddress() string {
	locality := strings.TrimSpace(strings.Join([]string{c.Suburb, "WA", c.Postcode}, " "))
	if c.Suburb == "" && c.Postcode == "" {
		locality = ""
	}
	switch {
	case c.Address == "":
		return locality
	case locality == "":
		return c.Address
	default:
		return c.Address + ", " + locality
	}
}
