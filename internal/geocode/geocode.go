// Package geocode resolves client addresses to coordinates using a
// Nominatim-compatible search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mmynk/techdoc/internal/models"
)

// ErrNotFound is returned when the service has no match for an address.
var ErrNotFound = errors.New("address not found")

// Config configures a Client.
type Config struct {
	// BaseURL of the search API, e.g. https://nominatim.openstreetmap.org.
	BaseURL string
	// UserAgent identifies the application, as the public API requires.
	UserAgent string
	// Region is appended to every query to bias results.
	Region   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client looks up addresses. Successful lookups are cached for CacheTTL;
// a CacheTTL of zero or less disables the cache.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	region    string
	cache     *gocache.Cache
	cacheTTL  time.Duration
}

// New creates a geocoding client.
func New(cfg Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		region:    cfg.Region,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cacheTTL:  cfg.CacheTTL,
	}
}

// Query builds the free-form search text for an address,
// e.g. "12 High Street, Fremantle 6160, Western Australia, Australia".
func (c *Client) Query(address, suburb, postcode string) string {
	locality := strings.Join(strings.Fields(suburb+" "+postcode), " ")
	var parts []string
	for _, p := range []string{strings.TrimSpace(address), locality, c.region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Locate returns the coordinates of a client's address.
func (c *Client) Locate(ctx context.Context, client *models.Client) (models.GeoPoint, error) {
	return c.Geocode(ctx, c.Query(client.Address, client.Suburb, client.Postcode))
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the coordinates of the best match for query.
func (c *Client) Geocode(ctx context.Context, query string) (models.GeoPoint, error) {
	if cached, ok := c.cache.Get(query); ok {
		return cached.(models.GeoPoint), nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoPoint{}, fmt.Errorf("failed to geocode: unexpected status %s", resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return models.GeoPoint{}, fmt.Errorf("%w: %s", ErrNotFound, query)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if err := errors.Join(errLat, errLng); err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to parse coordinates: %w", err)
	}

	point := models.GeoPoint{Lat: lat, Lng: lng}
	if c.cacheTTL > 0 {
		c.cache.Set(query, point, gocache.DefaultExpiration)
	}
	slog.Debug("Address geocoded", "query", query, "lat", lat, "lng", lng)
	return point, nil
}
