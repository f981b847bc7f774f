package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/influxdata/tdigest"
	"github.com/prometheus/common/expfmt"

	dto "github.com/prometheus/client_model/go"
)

// StoreMetrics is a snapshot of the store's own exporter, scraped
// while workloads run. Only stores exposing a Prometheus endpoint
// (Fuseki's /$/metrics) populate it.
type StoreMetrics struct {
	// RequestsTotal is the store's cumulative request counter.
	RequestsTotal float64

	// RequestRate is the instantaneous requests/sec between the
	// last two scrapes.
	RequestRate float64

	// Rolling window percentiles of the request rate.
	RateP50 float64
	RateMax float64

	// WindowSeconds is the rolling window size, for display.
	WindowSeconds int

	LastUpdate time.Time
	Healthy    bool
	Error      string
}

// rateSample is one request-rate observation with its scrape time.
type rateSample struct {
	value float64
	time  time.Time
}

// StoreScraper polls the store's Prometheus endpoint and tracks the
// request rate over a rolling window. Reads are lock-free.
type StoreScraper struct {
	url        string
	interval   time.Duration
	logger     *slog.Logger
	httpClient *http.Client

	// Atomic snapshot (lock-free reads)
	metrics atomic.Value // *StoreMetrics

	// Rate calculation state
	lastTotal atomic.Uint64 // float64 bits
	lastTime  atomic.Value  // time.Time

	// Rolling window (T-Digest plus raw samples for expiry)
	digest     *tdigest.TDigest
	samples    []rateSample
	digestMu   sync.Mutex
	windowSize time.Duration
}

// NewStoreScraper creates a scraper for the store's exporter URL.
// Returns nil if url is empty (store without an exporter).
func NewStoreScraper(url string, interval, windowSize time.Duration, logger *slog.Logger) *StoreScraper {
	if url == "" {
		return nil
	}

	if windowSize < 10*time.Second {
		windowSize = 10 * time.Second
	}
	if windowSize > 300*time.Second {
		windowSize = 300 * time.Second
	}

	s := &StoreScraper{
		url:      url,
		interval: interval,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		digest:     tdigest.NewWithCompression(100),
		windowSize: windowSize,
	}

	s.metrics.Store(&StoreMetrics{
		Healthy: false,
		Error:   "Not yet scraped",
	})

	return s
}

// Run starts the scrape loop. Blocks until ctx is cancelled; run it
// in a goroutine. Safe to call on a nil scraper.
func (s *StoreScraper) Run(ctx context.Context) {
	if s == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scrapeOnce(ctx)
		}
	}
}

// Metrics returns the latest snapshot. Safe on a nil scraper.
func (s *StoreScraper) Metrics() *StoreMetrics {
	if s == nil {
		return nil
	}
	return s.metrics.Load().(*StoreMetrics)
}

// scrapeOnce fetches and decodes one exposition.
func (s *StoreScraper) scrapeOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		s.storeError(err)
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.storeError(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.storeError(fmt.Errorf("status %d", resp.StatusCode))
		return
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		s.storeError(fmt.Errorf("parse exposition: %w", err))
		return
	}

	total := sumRequestCounters(families)
	now := time.Now()

	m := &StoreMetrics{
		RequestsTotal: total,
		WindowSeconds: int(s.windowSize.Seconds()),
		LastUpdate:    now,
		Healthy:       true,
	}

	// Rate from successive counter values
	if prev, ok := s.lastTime.Load().(time.Time); ok {
		dt := now.Sub(prev).Seconds()
		prevTotal := math.Float64frombits(s.lastTotal.Load())
		if dt > 0 && total >= prevTotal {
			rate := (total - prevTotal) / dt
			m.RequestRate = rate
			m.RateP50, m.RateMax = s.observeRate(rate, now)
		}
	}
	s.lastTotal.Store(math.Float64bits(total))
	s.lastTime.Store(now)

	s.metrics.Store(m)
}

// observeRate adds a sample to the rolling window and returns the
// current P50 and max.
func (s *StoreScraper) observeRate(rate float64, now time.Time) (p50, max float64) {
	s.digestMu.Lock()
	defer s.digestMu.Unlock()

	s.samples = append(s.samples, rateSample{value: rate, time: now})

	// Expire and rebuild when old samples fall out of the window.
	cutoff := now.Add(-s.windowSize)
	if len(s.samples) > 0 && s.samples[0].time.Before(cutoff) {
		kept := s.samples[:0]
		for _, sm := range s.samples {
			if !sm.time.Before(cutoff) {
				kept = append(kept, sm)
			}
		}
		s.samples = kept

		s.digest = tdigest.NewWithCompression(100)
		for _, sm := range s.samples {
			s.digest.Add(sm.value, 1)
		}
	} else {
		s.digest.Add(rate, 1)
	}

	max = 0
	for _, sm := range s.samples {
		if sm.value > max {
			max = sm.value
		}
	}
	return s.digest.Quantile(0.5), max
}

// storeError keeps the previous totals but marks the snapshot
// unhealthy.
func (s *StoreScraper) storeError(err error) {
	s.logger.Debug("store_scrape_failed", "url", s.url, "error", err)
	prev := s.Metrics()
	m := *prev
	m.Healthy = false
	m.Error = err.Error()
	s.metrics.Store(&m)
}

// sumRequestCounters sums every counter family that looks like a
// request counter. Fuseki exposes fuseki_requests and
// fuseki_requests_good/bad per endpoint.
func sumRequestCounters(families map[string]*dto.MetricFamily) float64 {
	total := 0.0
	for name, fam := range families {
		if fam.GetType() != dto.MetricType_COUNTER {
			continue
		}
		if !strings.Contains(name, "requests") {
			continue
		}
		// Only the base counter; good/bad would double count.
		if strings.HasSuffix(name, "_good") || strings.HasSuffix(name, "_bad") {
			continue
		}
		for _, metric := range fam.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
