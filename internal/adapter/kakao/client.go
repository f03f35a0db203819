// Package kakao geocodes Korean place names and resolves administrative
// region codes through the Kakao Local API.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
)

// legalRegion is the region_type of legal-dong (법정동) codes.
const legalRegion = "B"

// Client implements domain.Geocoder using the Kakao Local API.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Kakao Local API client.
func NewClient(key string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://dapi.kakao.com",
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a place name. Address search is tried first; names that
// are not addresses (stations, landmarks) fall through to keyword search.
func (c *Client) Geocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	params := url.Values{"query": {name}, "size": {"1"}}

	result, err := c.search(ctx, "/v2/local/search/address.json", params)
	if err != nil || result.Found {
		return result, err
	}
	return c.search(ctx, "/v2/local/search/keyword.json", params)
}

// RegionCode returns the legal-dong code of the region containing the point.
func (c *Client) RegionCode(ctx context.Context, lat, lon float64) (int64, error) {
	params := url.Values{
		"x": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"y": {strconv.FormatFloat(lat, 'f', -1, 64)},
	}
	var resp regionResponse
	if err := c.get(ctx, "/v2/local/geo/coord2regioncode.json", params, &resp); err != nil {
		return 0, err
	}
	for _, d := range resp.Documents {
		if d.RegionType != legalRegion {
			continue
		}
		code, err := strconv.ParseInt(d.Code, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse region code %q: %w", d.Code, err)
		}
		return code, nil
	}
	return 0, nil
}

func (c *Client) search(ctx context.Context, path string, params url.Values) (domain.GeocodingResult, error) {
	var resp searchResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(resp.Documents) == 0 {
		return domain.GeocodingResult{}, nil
	}

	d := resp.Documents[0]
	lon, errX := strconv.ParseFloat(d.X, 64)
	lat, errY := strconv.ParseFloat(d.Y, 64)
	if errX != nil || errY != nil {
		return domain.GeocodingResult{}, fmt.Errorf("kakao returned bad coordinates x=%q y=%q", d.X, d.Y)
	}
	return domain.GeocodingResult{
		Lat:     lat,
		Lon:     lon,
		Address: d.AddressName,
		Found:   true,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	fullURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("kakao request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("kakao API error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Kakao Local API response types. Coordinates are strings, x is longitude.

type searchResponse struct {
	Documents []document `json:"documents"`
}

type document struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type regionResponse struct {
	Documents []regionDocument `json:"documents"`
}

type regionDocument struct {
	RegionType  string `json:"region_type"`
	Code        string `json:"code"`
	AddressName string `json:"address_name"`
}
