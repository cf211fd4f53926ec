// Package metrics exposes run counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/dirfetch/src/entity"
)

const namespace = "dirfetch"

// Collector implements progress.Listener, lister.ProbeObserver and fetcher.ResultSink.
type Collector struct {
	registry *prometheus.Registry

	listedFiles prometheus.Gauge
	listedBytes prometheus.Gauge
	probes      *prometheus.CounterVec
	files       *prometheus.CounterVec
	bytes       prometheus.Counter
	inFlight    prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		listedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listed_files",
			Help:      "Files found by the listing phase.",
		}),
		listedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listed_bytes",
			Help:      "Sum of the declared sizes of all listed files.",
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "size_probes_total",
			Help:      "HEAD size probes by result.",
		}, []string{"result"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Finished file transfers by result.",
		}, []string{"result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written to local storage.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_flight",
			Help:      "File transfers currently streaming.",
		}),
	}
	c.registry.MustRegister(c.listedFiles, c.listedBytes, c.probes, c.files, c.bytes, c.inFlight)
	return c
}

func (c *Collector) SetListing(files int, bytes int64) {
	c.listedFiles.Set(float64(files))
	c.listedBytes.Set(float64(bytes))
}

func (c *Collector) ProbeFinished(_ string, ok bool) {
	c.probes.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) FileStarted(string, int64) {
	c.inFlight.Inc()
}

func (c *Collector) BytesTransferred(_ string, n int64) {
	c.bytes.Add(float64(n))
}

func (c *Collector) FileFinished(string, bool) {
	c.inFlight.Dec()
}

// RecordResult counts every download result, including the ones that failed before streaming started.
func (c *Collector) RecordResult(r entity.DownloadResult) error {
	c.files.WithLabelValues(result(r.Success)).Inc()
	return nil
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on address until ctx is done.
func (c *Collector) Serve(ctx context.Context, logger *log.Logger, address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("address", address).Info("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("fail to serve metrics")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
