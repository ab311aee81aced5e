package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

// StationSource resolves free-text locations to monitoring stations and
// fetches their measured feeds. It is the primary, required data source.
type StationSource interface {
	ResolveStation(ctx context.Context, query string) (*Station, error)
	FetchFeed(ctx context.Context, station *Station) (*StationFeed, error)
}

// SecondarySource supplies a combined index series by coordinates. It is
// optional and only fills dates the station feed does not cover.
type SecondarySource interface {
	FetchIndexSamples(ctx context.Context, lat, lon float64, days int) ([]aqi.Sample, error)
}

// Estimator synthesizes a full forecast when no measured coverage exists.
type Estimator interface {
	Estimate(ctx context.Context, city string, days int) (*aqi.Forecast, error)
}

const (
	// DefaultHorizonDays is the forecast length the pipeline targets.
	DefaultHorizonDays = 14

	// DefaultCacheTTL is how long a built forecast is served from cache.
	DefaultCacheTTL = time.Hour
)

// ServiceConfig holds the facade's dependencies. Stations is required;
// everything else is optional.
type ServiceConfig struct {
	Stations StationSource

	// StationProvider is the registry name outcomes for Stations are
	// recorded under. Empty disables recording.
	StationProvider string

	// StationAttribution is carried as a source on measured forecasts.
	StationAttribution aqi.Source

	Secondary            SecondarySource
	SecondaryProvider    string
	SecondaryAttribution aqi.Source

	Estimator         Estimator
	EstimatorProvider string

	// Registry receives per-provider call outcomes for the ops surface.
	Registry *resilience.Registry

	Logger zerolog.Logger

	// HorizonDays is the target forecast length (default 14).
	HorizonDays int

	// CacheTTL bounds how long built forecasts are reused (default 1h).
	CacheTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service builds forecasts through the full pipeline: resolve, fetch,
// aggregate, extend. Results are cached per normalized city query, and
// concurrent requests for the same city collapse into one upstream run.
type Service struct {
	cfg    ServiceConfig
	logger zerolog.Logger
	now    func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	forecast  *aqi.Forecast
	expiresAt time.Time
}

// NewService creates the forecast service. Returns ErrConfiguration when
// the station source is missing.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Stations == nil {
		return nil, fmt.Errorf("station source is required: %w", ErrConfiguration)
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    now,
		cache:  make(map[string]cacheEntry),
	}, nil
}

// Forecast returns the multi-day forecast for a free-text city query.
func (s *Service) Forecast(ctx context.Context, city string) (*aqi.Forecast, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return nil, fmt.Errorf("empty city query: %w", ErrNotFound)
	}

	if f, ok := s.cached(key); ok {
		return f, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have populated the cache while this
		// caller waited on the flight lock.
		if f, ok := s.cached(key); ok {
			return f, nil
		}

		f, err := s.build(ctx, key)
		if err != nil {
			return nil, err
		}
		s.store(key, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*aqi.Forecast), nil
}

func (s *Service) build(ctx context.Context, city string) (*aqi.Forecast, error) {
	start := s.now()

	station, err := s.cfg.Stations.ResolveStation(ctx, city)
	if err != nil {
		s.recordFailure(s.cfg.StationProvider, err)
		if errors.Is(err, ErrNotFound) {
			s.logger.Info().Str("city", city).Msg("no station match, trying estimation")
			return s.estimate(ctx, city, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve station for %q: %w: %w", city, ErrUpstreamUnavailable, err)
	}

	var (
		feed      *StationFeed
		secondary []aqi.Sample
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.cfg.Stations.FetchFeed(gctx, station)
		if err != nil {
			s.recordFailure(s.cfg.StationProvider, err)
			return fmt.Errorf("fetch station feed: %w: %w", ErrUpstreamUnavailable, err)
		}
		s.recordSuccess(s.cfg.StationProvider)
		feed = f
		return nil
	})
	if s.cfg.Secondary != nil {
		g.Go(func() error {
			samples, err := s.cfg.Secondary.FetchIndexSamples(gctx, station.Lat, station.Lon, s.cfg.HorizonDays)
			if err != nil {
				// The secondary source is best effort.
				s.recordFailure(s.cfg.SecondaryProvider, err)
				s.logger.Warn().Err(err).Str("city", city).Msg("secondary source unavailable")
				return nil
			}
			s.recordSuccess(s.cfg.SecondaryProvider)
			secondary = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := feed.Series
	usedSecondary := mergeSecondary(&set, secondary)

	records := aqi.Aggregate(set, aqi.AggregateOptions{
		StationName: station.Name,
		Today:       aqi.DateOf(s.now().UTC()),
		Override:    feed.Current,
	})
	if len(records) == 0 {
		s.logger.Info().Str("city", city).Msg("station has no usable data, trying estimation")
		return s.estimate(ctx, city, ErrUpstreamUnavailable)
	}

	origin := aqi.OriginMeasured
	if len(records) < s.cfg.HorizonDays {
		records = aqi.Extend(records, s.cfg.HorizonDays, station.Name)
		origin = aqi.OriginPartiallyEstimated
	}

	f := &aqi.Forecast{
		City:    station.Name,
		Days:    records,
		Sources: s.sources(usedSecondary),
		Origin:  origin,
	}

	s.logger.Info().
		Str("city", city).
		Str("station", station.Name).
		Str("origin", string(f.Origin)).
		Int("days", len(f.Days)).
		Bool("secondary_used", usedSecondary).
		Dur("duration", s.now().Sub(start)).
		Msg("forecast built")

	return f, nil
}

// estimate runs the AI fallback. When no estimator is configured, or it
// produces nothing, the caller's sentinel is returned so the HTTP layer
// can distinguish an unresolvable city from an unavailable upstream.
func (s *Service) estimate(ctx context.Context, city string, sentinel error) (*aqi.Forecast, error) {
	if s.cfg.Estimator == nil {
		return nil, fmt.Errorf("no data available for %q: %w", city, sentinel)
	}

	f, err := s.cfg.Estimator.Estimate(ctx, city, s.cfg.HorizonDays)
	if err != nil {
		s.recordFailure(s.cfg.EstimatorProvider, err)
		return nil, fmt.Errorf("estimate forecast for %q: %w: %w", city, ErrUpstreamUnavailable, err)
	}
	s.recordSuccess(s.cfg.EstimatorProvider)

	if len(f.Days) == 0 {
		return nil, fmt.Errorf("estimator returned no days for %q: %w", city, sentinel)
	}
	if len(f.Days) < s.cfg.HorizonDays {
		f.Days = aqi.Extend(f.Days, s.cfg.HorizonDays, f.City)
	}
	f.Origin = aqi.OriginFullyEstimated
	return f, nil
}

// mergeSecondary appends secondary combined samples for dates the station
// series does not cover at all. Reports whether anything was added.
func mergeSecondary(set *aqi.SeriesSet, samples []aqi.Sample) bool {
	if len(samples) == 0 {
		return false
	}

	covered := make(map[aqi.Date]bool)
	for _, sample := range set.Combined {
		covered[sample.Date] = true
	}
	for _, series := range set.PerPollutant {
		for _, sample := range series {
			covered[sample.Date] = true
		}
	}

	added := false
	for _, sample := range samples {
		if covered[sample.Date] {
			continue
		}
		set.Combined = append(set.Combined, sample)
		added = true
	}
	return added
}

func (s *Service) sources(usedSecondary bool) []aqi.Source {
	var sources []aqi.Source
	if s.cfg.StationAttribution != (aqi.Source{}) {
		sources = append(sources, s.cfg.StationAttribution)
	}
	if usedSecondary && s.cfg.SecondaryAttribution != (aqi.Source{}) {
		sources = append(sources, s.cfg.SecondaryAttribution)
	}
	return sources
}

func (s *Service) cached(key string) (*aqi.Forecast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.forecast, true
}

func (s *Service) store(key string, f *aqi.Forecast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = cacheEntry{forecast: f, expiresAt: s.now().Add(s.cfg.CacheTTL)}
}

func (s *Service) recordSuccess(name string) {
	if s.cfg.Registry != nil && name != "" {
		s.cfg.Registry.RecordSuccess(name)
	}
}

func (s *Service) recordFailure(name string, err error) {
	if s.cfg.Registry != nil && name != "" {
		s.cfg.Registry.RecordFailure(name, err)
	}
}
