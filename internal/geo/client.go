// Package geo resolves a client IP address to a city with ipgeolocation.io.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"movie-discovery-weather-recommender/internal/resilience"
)

// ErrNoCity is returned when the lookup succeeds without a city.
var ErrNoCity = errors.New("could not detect city from location data")

// Client is the ipgeolocation.io client.
type Client struct {
	apiKey  string
	baseURL string
	http    *resilience.HTTPClient
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    resilience.NewHTTPClient("ipgeolocation", 10*time.Second),
	}
}

type ipgeoResponse struct {
	IP          string `json:"ip"`
	City        string `json:"city"`
	CountryName string `json:"country_name"`
}

// City returns the city of ip. Loopback and private addresses are omitted
// from the query so the service geolocates the caller's public address.
func (c *Client) City(ctx context.Context, ip string) (string, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	if public(ip) {
		q.Set("ip", ip)
	}

	var res ipgeoResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/ipgeo?"+q.Encode(), &res); err != nil {
		return "", fmt.Errorf("detect location: %w", err)
	}
	city := strings.TrimSpace(res.City)
	if city == "" {
		return "", ErrNoCity
	}
	return city, nil
}

func public(ip string) bool {
	addr := net.ParseIP(ip)
	return addr != nil && !addr.IsLoopback() && !addr.IsPrivate() && !addr.IsUnspecified()
}

// BreakerState reports the circuit breaker state of the upstream API.
func (c *Client) BreakerState() string { return c.http.State() }
