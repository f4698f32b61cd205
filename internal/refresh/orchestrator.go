// Package refresh coordinates per-city data refreshes: fanning out upstream
// calls, racing them against timeouts, tolerating partial failures, and
// keeping the city store synchronized after each pass.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/gateway"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/store"
)

// ErrRefreshTimeout indicates a refresh attempt exceeded its configured bound.
// The attempt counts as failed for that city only.
var ErrRefreshTimeout = errors.New("refresh timed out")

// ErrCityGone indicates the city was removed before the refresh could apply.
var ErrCityGone = errors.New("city no longer tracked")

// ForecastFetcher is the combined current+daily weather lookup.
type ForecastFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (gateway.ForecastBundle, error)
}

// TimezoneResolver resolves coordinates to a zone, always usable (see gateway).
type TimezoneResolver interface {
	Resolve(ctx context.Context, lat, lon float64) gateway.TimezoneInfo
}

// HeadlineFetcher returns best-effort local headlines, never an error.
type HeadlineFetcher interface {
	Headlines(ctx context.Context, cityName, country string) []models.NewsArticle
}

// Listener is notified once per settled refresh batch with the current
// ordered sequence. Presentation subscribes to re-render; updates are batched
// per pass, never per city.
type Listener func(cities []models.TrackedCity)

// Orchestrator owns the refresh state machine for every tracked city:
// Idle -> Fetching -> {Fresh | Errored}, re-entrant on the next trigger.
// Concurrent passes over the same city are tolerated; the record is only
// mutated through CityList.Update, so the last pass to complete wins.
type Orchestrator struct {
	list     *store.CityList
	store    store.Store
	forecast ForecastFetcher
	timezone TimezoneResolver
	news     HeadlineFetcher
	logger   *zap.Logger

	addTimeout  time.Duration
	bulkTimeout time.Duration

	outcomes *OutcomeTracker
	inflight inFlightTracker

	mu        sync.Mutex
	listeners []Listener
}

// Config bundles the orchestrator's dependencies and timeout policy.
type Config struct {
	List     *store.CityList
	Store    store.Store
	Forecast ForecastFetcher
	Timezone TimezoneResolver
	News     HeadlineFetcher // optional; nil disables headlines
	Logger   *zap.Logger

	AddTimeout  time.Duration // bounds an explicit single-city refresh
	BulkTimeout time.Duration // bounds each city inside a refresh-all pass

	Outcomes *OutcomeTracker
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.AddTimeout <= 0 {
		cfg.AddTimeout = 30 * time.Second
	}
	if cfg.BulkTimeout <= 0 {
		cfg.BulkTimeout = 15 * time.Second
	}
	if cfg.Outcomes == nil {
		cfg.Outcomes = NewOutcomeTracker(time.Hour)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Orchestrator{
		list:        cfg.List,
		store:       cfg.Store,
		forecast:    cfg.Forecast,
		timezone:    cfg.Timezone,
		news:        cfg.News,
		logger:      cfg.Logger,
		addTimeout:  cfg.AddTimeout,
		bulkTimeout: cfg.BulkTimeout,
		outcomes:    cfg.Outcomes,
	}
}

// OnUpdate registers a listener notified after every settled batch.
func (o *Orchestrator) OnUpdate(fn Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Outcomes exposes the refresh outcome tracker for health reporting.
func (o *Orchestrator) Outcomes() *OutcomeTracker {
	return o.outcomes
}

// RefreshOne refreshes a single city under the explicit-action timeout, then
// persists and notifies. Used for the initial refresh of a just-added city
// and for user-triggered reloads. The returned error mirrors what was
// recorded on the record.
func (o *Orchestrator) RefreshOne(ctx context.Context, id string) error {
	o.inflight.increment()
	defer o.inflight.decrement()

	err := o.refreshCity(ctx, id, o.addTimeout)
	o.persistAndNotify(ctx)
	return err
}

// RefreshAll refreshes every tracked city concurrently. One city's failure or
// timeout never aborts or delays its siblings; after all attempts settle the
// store is persisted once and listeners are notified once. trigger labels the
// pass for metrics ("scheduled" or "manual").
func (o *Orchestrator) RefreshAll(ctx context.Context, trigger string) {
	o.inflight.increment()
	defer o.inflight.decrement()

	cities := o.list.Snapshot()
	observability.RefreshCyclesTotal.WithLabelValues(trigger).Inc()
	if len(cities) == 0 {
		return
	}

	start := time.Now()
	o.logger.Info("refresh pass starting",
		zap.String("trigger", trigger),
		zap.Int("cities", len(cities)))

	var wg sync.WaitGroup
	for _, city := range cities {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = o.refreshCity(ctx, id, o.bulkTimeout)
		}(city.ID)
	}
	wg.Wait()

	observability.RefreshCycleDuration.Observe(time.Since(start).Seconds())
	o.persistAndNotify(ctx)
	o.logger.Info("refresh pass complete",
		zap.String("trigger", trigger),
		zap.Duration("duration", time.Since(start)))
}

// refreshCity runs one bounded refresh attempt for the city with the given
// id. The forecast and timezone calls fan out concurrently; the record is
// updated atomically only after both settle. A forecast failure leaves any
// previously fetched data in place (stale-but-displayable beats blank) and
// records the error on the record; timezone failure is absorbed by fallback.
func (o *Orchestrator) refreshCity(ctx context.Context, id string, timeout time.Duration) error {
	city, ok := o.list.Find(id)
	if !ok {
		return ErrCityGone
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type forecastResult struct {
		bundle gateway.ForecastBundle
		err    error
	}
	forecastCh := make(chan forecastResult, 1)
	timezoneCh := make(chan gateway.TimezoneInfo, 1)
	headlinesCh := make(chan []models.NewsArticle, 1)

	go func() {
		bundle, err := o.forecast.Fetch(ctx, city.Latitude, city.Longitude)
		forecastCh <- forecastResult{bundle: bundle, err: err}
	}()
	go func() {
		timezoneCh <- o.timezone.Resolve(ctx, city.Latitude, city.Longitude)
	}()
	go func() {
		if o.news == nil {
			headlinesCh <- nil
			return
		}
		headlinesCh <- o.news.Headlines(ctx, city.Name, city.Country)
	}()

	fc := <-forecastCh
	tz := <-timezoneCh
	headlines := <-headlinesCh

	if fc.err != nil {
		err := fc.err
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrRefreshTimeout
			observability.RefreshTotal.WithLabelValues("timeout").Inc()
		} else {
			observability.RefreshTotal.WithLabelValues("error").Inc()
		}
		o.outcomes.RecordError()

		o.list.Update(id, func(c *models.TrackedCity) {
			c.LastError = err.Error()
		})
		o.logger.Warn("city refresh failed",
			zap.String("city", city.Name),
			zap.String("id", id),
			zap.Error(fc.err))
		return err
	}

	zone := tz.ZoneName
	if tz.Fallback && fc.bundle.Timezone != "" {
		// The forecast upstream resolved the zone even though the dedicated
		// lookup failed; prefer the real zone over the local fallback.
		zone = fc.bundle.Timezone
	}

	now := time.Now()
	updated := o.list.Update(id, func(c *models.TrackedCity) {
		current := fc.bundle.Current
		c.Current = &current
		c.DailyForecast = fc.bundle.Daily
		c.TimezoneName = zone
		if headlines != nil {
			c.Headlines = headlines
		}
		c.LastUpdatedAt = &now
		c.LastError = ""
	})
	if !updated {
		// Removed while the fetch was in flight; nothing to record.
		return ErrCityGone
	}

	observability.RefreshTotal.WithLabelValues("success").Inc()
	o.outcomes.RecordSuccess()
	o.logger.Debug("city refreshed",
		zap.String("city", city.Name),
		zap.String("zone", zone))
	return nil
}

// persistAndNotify writes the current sequence through the store and notifies
// listeners once. Persistence failures are reported and counted but do not
// roll back in-memory state.
func (o *Orchestrator) persistAndNotify(ctx context.Context) {
	snapshot := o.list.Snapshot()
	observability.TrackedCities.Set(float64(len(snapshot)))

	if err := o.store.Persist(ctx, snapshot); err != nil {
		observability.StorePersistTotal.WithLabelValues("error").Inc()
		o.logger.Error("persist failed", zap.Error(err))
	} else {
		observability.StorePersistTotal.WithLabelValues("success").Inc()
	}

	o.mu.Lock()
	listeners := make([]Listener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Sync persists the current sequence and notifies listeners without running
// any refresh. Used after membership changes (add, remove) so the stored
// sequence and the presentation stay aligned with memory.
func (o *Orchestrator) Sync(ctx context.Context) {
	o.persistAndNotify(ctx)
}

// InFlight returns the number of refresh operations currently running.
func (o *Orchestrator) InFlight() int64 {
	return o.inflight.current()
}

// Drain blocks until in-flight refresh operations complete or ctx is done.
func (o *Orchestrator) Drain(ctx context.Context, checkInterval time.Duration) error {
	return o.inflight.waitForZero(ctx, checkInterval)
}
