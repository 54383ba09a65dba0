package thermals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/glideplan/internal/storage/sqlite"
	"github.com/yegors/glideplan/internal/wx"
	"github.com/yegors/glideplan/pkg/logger"
)

// WeatherSource fetches live point weather for the grid centroids.
type WeatherSource interface {
	FetchPoints(ctx context.Context, ts time.Time, lats, lons []float64) ([]wx.PointWeather, error)
}

// ObservationSource supplies stored thermal observations for the prior.
type ObservationSource interface {
	GetByHour(hourUTC, limit int) ([]*sqlite.ThermalRecord, error)
}

// Options carries the tunables for snapshot construction.
type Options struct {
	BBox             BBox
	GridResM         float64
	MinScore         float64
	MaxCandidates    int
	CandidateSepM    float64
	PriorBandwidthKm float64
	PriorMinSamples  int
	CacheTTL         time.Duration
	FallbackWind     wx.Constant // sampler used when no live weather is available
}

// Service builds and caches scored-grid snapshots. The cache lives here,
// never in the planner: each search invocation receives explicit inputs.
type Service struct {
	opts    Options
	weather WeatherSource     // nil disables live weather
	obs     ObservationSource // nil disables the prior
	logger  *logger.Logger

	mu        sync.Mutex
	cells     []Cell
	windField []wx.CellWeather
	ceilingM  *float64
	cachedAt  time.Time
}

// NewService creates a snapshot service. weather and obs may be nil.
func NewService(opts Options, weather WeatherSource, obs ObservationSource, log *logger.Logger) (*Service, error) {
	if err := opts.BBox.Validate(); err != nil {
		return nil, err
	}
	if opts.GridResM <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %f", opts.GridResM)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	return &Service{
		opts:    opts,
		weather: weather,
		obs:     obs,
		logger:  log.Named("thermals"),
	}, nil
}

// Snapshot returns the scored grid, rebuilding it when the cache has
// expired.
func (s *Service) Snapshot(ctx context.Context) ([]Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cells != nil && time.Since(s.cachedAt) < s.opts.CacheTTL {
		return s.cells, nil
	}

	cells, windField, ceiling, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	s.cells = cells
	s.windField = windField
	s.ceilingM = ceiling
	s.cachedAt = time.Now()
	return s.cells, nil
}

func (s *Service) build(ctx context.Context) ([]Cell, []wx.CellWeather, *float64, error) {
	cells, err := BuildGrid(s.opts.BBox, s.opts.GridResM)
	if err != nil {
		return nil, nil, nil, err
	}

	feats := make([]Features, len(cells))
	var windField []wx.CellWeather

	if s.weather != nil {
		lats := make([]float64, len(cells))
		lons := make([]float64, len(cells))
		for i, c := range cells {
			lats[i] = c.Lat
			lons[i] = c.Lon
		}

		rows, err := s.weather.FetchPoints(ctx, time.Now().UTC().Truncate(15*time.Minute), lats, lons)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch snapshot weather: %w", err)
		}
		if len(rows) != len(cells) {
			return nil, nil, nil, fmt.Errorf("weather returned %d rows for %d cells", len(rows), len(cells))
		}

		windField = make([]wx.CellWeather, len(rows))
		for i, r := range rows {
			feats[i] = Features{
				CAPEJkg:      r.CAPEJkg,
				GlobalRadW:   r.GlobalRadW,
				WindSpeed10m: r.WindSpeed10m,
			}
			windField[i] = wx.CellWeather{
				Lat:         r.Lat,
				Lon:         r.Lon,
				WindSpeedMS: r.WindSpeed10m,
				WindFromDeg: r.WindDir10m,
			}
		}
	}

	prior, ceiling := s.buildPrior(cells)

	if err := ScoreCells(cells, feats, prior); err != nil {
		return nil, nil, nil, err
	}

	s.logger.Debug("Built grid snapshot",
		logger.Int("cells", len(cells)),
		logger.Bool("live_weather", windField != nil),
		logger.Bool("prior", prior != nil),
	)
	return cells, windField, ceiling, nil
}

// buildPrior loads this hour's historical observations and turns them
// into a per-cell prior plus a ceiling estimate from observed tops.
func (s *Service) buildPrior(cells []Cell) ([]float64, *float64) {
	if s.obs == nil {
		return nil, nil
	}

	records, err := s.obs.GetByHour(time.Now().UTC().Hour(), 5000)
	if err != nil {
		s.logger.Warn("Failed to load thermal prior, continuing without", logger.Error(err))
		return nil, nil
	}
	if len(records) == 0 {
		return nil, nil
	}

	pts := make([]PriorPoint, len(records))
	topSum := 0.0
	topN := 0
	for i, r := range records {
		pts[i] = PriorPoint{Lat: r.Lat, Lon: r.Lon}
		if r.TopAltM > 0 {
			topSum += r.TopAltM
			topN++
		}
	}

	var ceiling *float64
	if topN > 0 {
		v := topSum / float64(topN)
		ceiling = &v
	}

	return Prior(pts, cells, s.opts.PriorBandwidthKm, s.opts.PriorMinSamples), ceiling
}

// Candidates returns corridor-unfiltered candidates from the current
// snapshot.
func (s *Service) Candidates(ctx context.Context) ([]Candidate, error) {
	cells, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ceiling := s.ceilingM
	s.mu.Unlock()

	return SelectCandidates(cells, s.opts.MinScore, s.opts.MaxCandidates, s.opts.CandidateSepM, ceiling), nil
}

// Sampler returns the environment sampler matching the current snapshot:
// the live wind field when one was fetched, otherwise the configured
// fallback.
func (s *Service) Sampler() wx.Sampler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.windField) > 0 {
		return wx.NewGridSampler(s.windField)
	}
	return s.opts.FallbackWind
}
