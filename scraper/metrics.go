package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry           *prometheus.Registry
	ListingPagesTotal  prometheus.Counter
	RecordsTotal       prometheus.Counter
	NavigationsTotal   *prometheus.CounterVec
	NavigationDuration prometheus.Histogram
	FieldFallbacks     *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	DetailCacheHits    prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listing_pages_total",
			Help: "Listing pages fetched and parsed.",
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_records_total",
			Help: "Records assembled from listing fragments.",
		},
	)
	navigations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_navigations_total",
			Help: "Detail page navigations of the rendering session by outcome.",
		},
		[]string{"outcome"},
	)
	navigationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_navigation_duration_seconds",
			Help:    "Time spent navigating the rendering session to a detail page.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_field_fallbacks_total",
			Help: "Fields that fell back to a sentinel value, by field and reason.",
		},
		[]string{"field", "reason"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Listing fetch errors by type.",
		},
		[]string{"error_type"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_detail_cache_hits_total",
			Help: "Detail pages served from the cache instead of a navigation.",
		},
	)

	registry.MustRegister(pages, records, navigations, navigationDuration, fallbacks, errorsTotal, cacheHits)

	return &Metrics{
		Registry:           registry,
		ListingPagesTotal:  pages,
		RecordsTotal:       records,
		NavigationsTotal:   navigations,
		NavigationDuration: navigationDuration,
		FieldFallbacks:     fallbacks,
		ErrorsTotal:        errorsTotal,
		DetailCacheHits:    cacheHits,
	}
}

// IncPages increments the listing pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.ListingPagesTotal.Inc()
}

// IncRecords increments the records counter.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// ObserveNavigation records one detail navigation.
func (m *Metrics) ObserveNavigation(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
	m.NavigationDuration.Observe(d.Seconds())
}

// IncFallback counts a field substituted with its sentinel.
func (m *Metrics) IncFallback(field, reason string) {
	if m == nil {
		return
	}
	m.FieldFallbacks.WithLabelValues(field, reason).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncCacheHit counts a detail cache hit.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.DetailCacheHits.Inc()
}
