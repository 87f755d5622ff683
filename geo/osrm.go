package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OSRM is a Router backed by the OSRM HTTP route service.
type OSRM struct {
	BaseURL string
	Profile string
	Client  *http.Client
}

func NewOSRM(baseURL string, timeout time.Duration) *OSRM {
	return &OSRM{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Profile: "driving",
		Client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
}

func (o *OSRM) RouteKm(ctx context.Context, from, to Point) (float64, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		o.BaseURL, o.Profile, from.Lng, from.Lat, to.Lng, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm: status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, ErrNotFound
	}
	return body.Routes[0].Distance / 1000, nil
}
