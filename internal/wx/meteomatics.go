package wx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/yegors/glideplan/pkg/logger"
)

const defaultMeteomaticsURL = "https://api.meteomatics.com"

// maxPointsPerRequest keeps route URLs short enough for intermediate
// proxies.
const maxPointsPerRequest = 150

// PointWeather is one Meteomatics sample row for a grid centroid.
type PointWeather struct {
	Lat          float64 `csv:"lat"`
	Lon          float64 `csv:"lon"`
	ValidDate    string  `csv:"validdate"`
	Temp2mC      float64 `csv:"t_2m:C"`
	PressureHPa  float64 `csv:"msl_pressure:hPa"`
	WindSpeed10m float64 `csv:"wind_speed_10m:ms"`
	WindDir10m   float64 `csv:"wind_dir_10m:d"`
	CAPEJkg      float64 `csv:"cape:Jkg"`
	GlobalRadW   float64 `csv:"global_rad:W"`
}

// meteomaticsParams is the parameter route segment matching PointWeather.
var meteomaticsParams = strings.Join([]string{
	"t_2m:C",
	"msl_pressure:hPa",
	"wind_speed_10m:ms",
	"wind_dir_10m:d",
	"cape:Jkg",
	"global_rad:W",
}, ",")

// MeteomaticsClient fetches point weather from the Meteomatics route API.
type MeteomaticsClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewMeteomaticsClient creates a client with the given credentials. An
// empty baseURL selects the production endpoint.
func NewMeteomaticsClient(baseURL, username, password string, timeout time.Duration, logger *logger.Logger) *MeteomaticsClient {
	if baseURL == "" {
		baseURL = defaultMeteomaticsURL
	}
	return &MeteomaticsClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("meteomatics"),
	}
}

// FetchPoints queries the API at the given timestamp for every coordinate
// pair, batching requests, and returns one row per point in input order.
func (c *MeteomaticsClient) FetchPoints(ctx context.Context, ts time.Time, lats, lons []float64) ([]PointWeather, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("coordinate length mismatch: %d lats, %d lons", len(lats), len(lons))
	}

	out := make([]PointWeather, 0, len(lats))
	for start := 0; start < len(lats); start += maxPointsPerRequest {
		end := start + maxPointsPerRequest
		if end > len(lats) {
			end = len(lats)
		}

		rows, err := c.fetchBatch(ctx, ts, lats[start:end], lons[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}

	return out, nil
}

func (c *MeteomaticsClient) fetchBatch(ctx context.Context, ts time.Time, lats, lons []float64) ([]PointWeather, error) {
	coords := make([]string, len(lats))
	for i := range lats {
		coords[i] = fmt.Sprintf("%.6f,%.6f", lats[i], lons[i])
	}

	url := fmt.Sprintf("%s/%s/%s/%s/csv",
		c.baseURL,
		ts.UTC().Format("2006-01-02T15:04:05Z"),
		meteomaticsParams,
		strings.Join(coords, "+"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	c.logger.Debug("Fetching point weather",
		logger.Int("points", len(lats)),
		logger.String("valid", ts.UTC().Format(time.RFC3339)),
	)

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

	return decodePointCSV(string(body))
}

// decodePointCSV parses a Meteomatics CSV payload. The API usually
// delimits with ';'; fall back to ',' when the header says otherwise.
func decodePointCSV(text string) ([]PointWeather, error) {
	head := text
	if len(head) > 400 {
		head = head[:400]
	}
	sep := ';'
	if strings.Count(head, ",") > strings.Count(head, ";") {
		sep = ','
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []PointWeather
	for {
		var row PointWeather
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode CSV row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
