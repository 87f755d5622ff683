package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Nominatim is a Geocoder backed by an OpenStreetMap Nominatim instance.
type Nominatim struct {
	BaseURL string
	// Suffix is appended to every search query, e.g. ", Saint Petersburg".
	Suffix    string
	Language  string
	UserAgent string
	Client    *http.Client
	Cache     Cache
	CacheTTL  time.Duration
}

func NewNominatim(baseURL, suffix string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Suffix:    suffix,
		Language:  "ru",
		UserAgent: "tow-dispatch-api/1.0",
		Client:    &http.Client{Timeout: timeout},
		CacheTTL:  24 * time.Hour,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Search(ctx context.Context, query string) (Point, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Point{}, ErrNotFound
	}
	q += n.Suffix
	key := "geo:search:" + q
	if v, ok := cacheGet(ctx, n.Cache, key); ok {
		if p, err := parsePoint(v); err == nil {
			return p, nil
		}
	}

	params := url.Values{"q": {q}, "format": {"json"}, "limit": {"1"}}
	var rows []nominatimPlace
	if err := n.get(ctx, "/search?"+params.Encode(), &rows); err != nil {
		return Point{}, err
	}
	if len(rows) == 0 {
		return Point{}, ErrNotFound
	}
	lat, err1 := strconv.ParseFloat(rows[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(rows[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Point{}, fmt.Errorf("nominatim: bad coordinates %q,%q", rows[0].Lat, rows[0].Lon)
	}
	p := Point{Lat: lat, Lng: lng}
	cacheSet(ctx, n.Cache, key, strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64), n.CacheTTL)
	return p, nil
}

func (n *Nominatim) Reverse(ctx context.Context, p Point) (string, error) {
	key := "geo:reverse:" + FormatPoint(p)
	if v, ok := cacheGet(ctx, n.Cache, key); ok {
		return v, nil
	}
	params := url.Values{
		"lat":    {strconv.FormatFloat(p.Lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(p.Lng, 'f', 6, 64)},
		"format": {"json"},
	}
	var place nominatimPlace
	if err := n.get(ctx, "/reverse?"+params.Encode(), &place); err != nil {
		return "", err
	}
	if place.DisplayName == "" {
		return "", ErrNotFound
	}
	cacheSet(ctx, n.Cache, key, place.DisplayName, n.CacheTTL)
	return place.DisplayName, nil
}

func (n *Nominatim) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if n.Language != "" {
		req.Header.Set("Accept-Language", n.Language)
	}
	req.Header.Set("User-Agent", n.UserAgent)
	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nominatim: decode: %w", err)
	}
	return nil
}

func parsePoint(s string) (Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("bad point %q", s)
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Point{}, err
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return Point{}, err
	}
	return Point{Lat: la, Lng: ln}, nil
}
