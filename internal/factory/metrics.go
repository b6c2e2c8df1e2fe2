package factory

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openshift-assisted/ansible-receipts/internal/config"
	"github.com/openshift-assisted/ansible-receipts/internal/log"
)

// CreatePrometheusServer serves the registry on /metrics while collect waits for the run to complete.
func CreatePrometheusServer(conf config.Metrics, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           mux,
		IdleTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Logger().WithName("metrics").V(1).Info(fmt.Sprint(v...))
}

func CreateCollectorGauge(registry prometheus.Registerer) (prometheus.Gauge, error) {
	ret := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "collector",
		Name:      "buffered_events",
		Help:      "Events buffered by the collector, waiting for the run to complete.",
	})

	err := registry.Register(ret)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	return ret, nil
}
