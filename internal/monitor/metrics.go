package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/Perennis/pkg/logger"
)

var (
	// RestartTotal tracks completed server restarts, partitioned by reason.
	RestartTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "perennis_restarts_total",
		Help: "Total number of completed game server restarts",
	}, []string{"reason"})
	// ContentChecksTotal tracks staleness checks, partitioned by outcome.
	ContentChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "perennis_content_checks_total",
		Help: "Workshop content staleness checks by outcome",
	}, []string{"outcome"})
	// RebootCounter mirrors the controller's restart count toward host reboot.
	RebootCounter = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "perennis_reboot_counter",
		Help: "Restarts completed since the daemon started",
	})
	// BackupDuration tracks how long world backups take, by tag.
	BackupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perennis_backup_duration_seconds",
		Help:    "Time taken to archive the world directory",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"tag"})
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. It is safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RestartTotal, ContentChecksTotal, RebootCounter, BackupDuration)
	})
}

// InitMetrics registers Prometheus metrics and, when addr is not empty, starts an
// HTTP server exposing them on addr (e.g. "127.0.0.1:9090").
func InitMetrics(addr string) {
	Register()
	if addr == "" {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
}

// Personal.AI order the ending
