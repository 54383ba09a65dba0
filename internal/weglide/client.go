// Package weglide is a client for the WeGlide public API thermal replay,
// the source of historical thermal observations used to seed the
// candidate-waypoint prior.
package weglide

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/tidwall/gjson"

	"github.com/yegors/glideplan/pkg/logger"
)

const defaultBaseURL = "https://api.weglide.org/v1"

// ThermalObservation is one normalized thermal replay record.
type ThermalObservation struct {
	ID        int64   `json:"id,omitempty" csv:"id"`
	Lat       float64 `json:"lat" csv:"lat"`
	Lon       float64 `json:"lon" csv:"lon"`
	BaseAltM  float64 `json:"alt_base_m,omitempty" csv:"alt_base_m"`
	TopAltM   float64 `json:"alt_top_m,omitempty" csv:"alt_top_m"`
	StartUnix int64   `json:"t_start,omitempty" csv:"t_start"`
	EndUnix   int64   `json:"t_end,omitempty" csv:"t_end"`
}

// Client talks to the WeGlide API. Public thermal reads need no token;
// one can be supplied for endpoints that do.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a WeGlide client. An empty baseURL selects the public
// API endpoint.
func NewClient(baseURL, token string, timeout time.Duration, logger *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("weglide"),
	}
}

// GetThermals fetches the thermal replay at the given instant and
// normalizes the payload. The API has shipped both positional arrays
// [id, lon, lat, base, top, t_start, t_end] and keyed objects; both are
// accepted, and items without coordinates are dropped.
func (c *Client) GetThermals(ctx context.Context, at time.Time) ([]ThermalObservation, error) {
	url := fmt.Sprintf("%s/thermal?time=%d", c.baseURL, at.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "glideplan/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("Fetching thermal replay", logger.Int64("time_unix", at.Unix()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		// Some endpoints wrap a single item; keep parsing robust.
		parsed = gjson.Parse("[" + parsed.Raw + "]")
	}

	var obs []ThermalObservation
	parsed.ForEach(func(_, item gjson.Result) bool {
		if o, ok := normalizeItem(item); ok {
			obs = append(obs, o)
		}
		return true
	})

	c.logger.Debug("Normalized thermal replay", logger.Int("observations", len(obs)))
	return obs, nil
}

// normalizeItem converts one payload item, positional or keyed, into a
// ThermalObservation.
func normalizeItem(item gjson.Result) (ThermalObservation, bool) {
	if item.IsArray() {
		arr := item.Array()
		if len(arr) < 3 {
			return ThermalObservation{}, false
		}
		o := ThermalObservation{
			ID:  arr[0].Int(),
			Lon: arr[1].Float(),
			Lat: arr[2].Float(),
		}
		if len(arr) >= 4 {
			o.BaseAltM = arr[3].Float()
		}
		if len(arr) >= 5 {
			o.TopAltM = arr[4].Float()
		}
		if len(arr) >= 6 {
			o.StartUnix = arr[5].Int()
		}
		if len(arr) >= 7 {
			o.EndUnix = arr[6].Int()
		}
		return o, true
	}

	if item.IsObject() {
		lat := firstOf(item, "lat", "latitude", "y")
		lon := firstOf(item, "lon", "lng", "longitude", "x")
		if !lat.Exists() || !lon.Exists() {
			return ThermalObservation{}, false
		}
		return ThermalObservation{
			ID:        item.Get("id").Int(),
			Lat:       lat.Float(),
			Lon:       lon.Float(),
			BaseAltM:  item.Get("alt_base_m").Float(),
			TopAltM:   item.Get("alt_top_m").Float(),
			StartUnix: item.Get("t_start").Int(),
			EndUnix:   item.Get("t_end").Int(),
		}, true
	}

	return ThermalObservation{}, false
}

func firstOf(item gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// WriteCSV exports observations in the layout the offline tooling expects.
func WriteCSV(w io.Writer, obs []ThermalObservation) error {
	cw := csv.NewWriter(w)
	if err := csvutil.NewEncoder(cw).Encode(obs); err != nil {
		return fmt.Errorf("failed to encode thermals CSV: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
