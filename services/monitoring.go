package services

import (
	"runtime"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC = "monitoring_svc"
	SERVICE_NAME   = "pairup_api"

	housekeepingInterval = 15 * time.Second
)

// Metrics owns every collector the service exports. It is created once and
// handed to the components that record into it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpResponseSizeBytes      *prometheus.HistogramVec

	sessionsStarted   *prometheus.CounterVec
	matchesSubmitted  *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	finalScore        *prometheus.HistogramVec
	cacheFailures     *prometheus.CounterVec
	revisionConflicts prometheus.Counter

	heapAllocBytes prometheus.Gauge
	heapSysBytes   prometheus.Gauge
	gcTotal        prometheus.Counter
	uptimeSeconds  prometheus.Gauge

	mu          sync.Mutex
	startedAt   time.Time
	lastGCCount uint32
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startedAt: time.Now(),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"endpoint", "method", "status"}),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "method", "status"}),
		httpResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response payload size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		}, []string{"endpoint", "method"}),

		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_sessions_started_total",
			Help: "Game sessions started",
		}, []string{"difficulty"}),
		matchesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_matches_submitted_total",
			Help: "Match submissions by outcome",
		}, []string{"result"}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_sessions_completed_total",
			Help: "Game sessions completed",
		}, []string{"difficulty", "rating"}),
		finalScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "game_final_score",
			Help:    "Final score of completed sessions",
			Buckets: []float64{0, 25, 50, 100, 150, 200, 300, 400, 500},
		}, []string{"difficulty"}),
		cacheFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_cache_failures_total",
			Help: "Non-critical cache writes that failed",
		}, []string{"operation"}),
		revisionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_session_revision_conflicts_total",
			Help: "Concurrent session writes that lost the revision check",
		}),

		heapAllocBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		}),
		heapSysBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heap_sys_bytes",
			Help: "Heap memory obtained from system in bytes",
		}),
		gcTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_uptime_seconds",
			Help: "Seconds since the service started",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDurationSeconds,
		m.httpResponseSizeBytes,
		m.sessionsStarted,
		m.matchesSubmitted,
		m.sessionsCompleted,
		m.finalScore,
		m.cacheFailures,
		m.revisionConflicts,
		m.heapAllocBytes,
		m.heapSysBytes,
		m.gcTotal,
		m.uptimeSeconds,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startedAt)
}

func (m *Metrics) RecordRequest(method, endpoint, status string, duration time.Duration, responseSize int) {
	m.httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
	m.httpResponseSizeBytes.WithLabelValues(endpoint, method).Observe(float64(responseSize))
}

func (m *Metrics) SessionStarted(difficulty string) {
	m.sessionsStarted.WithLabelValues(difficulty).Inc()
}

func (m *Metrics) MatchSubmitted(isMatch bool) {
	result := "miss"
	if isMatch {
		result = "match"
	}
	m.matchesSubmitted.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionCompleted(difficulty, rating string, score int) {
	m.sessionsCompleted.WithLabelValues(difficulty, rating).Inc()
	m.finalScore.WithLabelValues(difficulty).Observe(float64(score))
}

func (m *Metrics) CacheFailure(operation string) {
	m.cacheFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) RevisionConflict() {
	m.revisionConflicts.Inc()
}

// Sample refreshes the runtime gauges.
func (m *Metrics) Sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.heapAllocBytes.Set(float64(ms.Alloc))
	m.heapSysBytes.Set(float64(ms.Sys))
	m.uptimeSeconds.Set(m.Uptime().Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	if ms.NumGC > m.lastGCCount {
		m.gcTotal.Add(float64(ms.NumGC - m.lastGCCount))
		m.lastGCCount = ms.NumGC
	}
}

type MonitoringService struct {
	appContext.DefaultService

	metrics   *Metrics
	scheduler gocron.Scheduler
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *appContext.Context) error {
	svc.metrics = NewMetrics()
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(housekeepingInterval),
		gocron.NewTask(svc.metrics.Sample),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	svc.scheduler = scheduler
	svc.metrics.Sample()
	scheduler.Start()

	log.Info().Dur("interval", housekeepingInterval).Msg("Metrics housekeeping started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.scheduler != nil {
		if err := svc.scheduler.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop metrics scheduler")
		}
	}
}

func (svc *MonitoringService) Metrics() *Metrics {
	return svc.metrics
}

func (svc *MonitoringService) MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(svc.metrics.Registry(), promhttp.HandlerOpts{}))
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		err := c.Next()

		// Route is only resolved after routing.
		endpoint := c.Route().Path
		status := c.Response().StatusCode()
		// Errors are rendered after the chain unwinds.
		if appErr, ok := shared.GetAppError(err); ok {
			status = appErr.StatusCode
		} else if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		metrics.RecordRequest(method, endpoint, strconv.Itoa(status), time.Since(start), len(c.Response().Body()))
		return err
	}
}
