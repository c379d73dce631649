/*
   Copyright 2024 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/datrs/hypercore/hypercore"
	"github.com/datrs/hypercore/log"
	"github.com/datrs/hypercore/metrics"
)

var serveAddr string

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Open the core and serve its Prometheus metrics over HTTP until interrupted",
	RunE:  runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().StringVar(&serveAddr, "addr", "localhost:2112", "address to serve /metrics on")
	rootCmd.AddCommand(serveMetricsCmd)
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	registry := prometheus.NewRegistry()
	core, err := hypercore.OpenDir(dir, nil, hypercore.Config{Registerer: registry})
	if err != nil {
		return err
	}
	defer core.Close()

	mux := newMetricsMux(registry)
	server := &http.Server{Addr: serveAddr, Handler: mux}

	go func() {
		log.Infof("serving metrics on %s/metrics", serveAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %v", err)
		}
	}()

	awaitTermSignal(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("metrics server shutdown: %v", err)
		}
	})
	return nil
}

// newMetricsMux serves metrics registered against the core's own
// registry alongside the process default gatherer, from /metrics.
func newMetricsMux(r *prometheus.Registry) *http.ServeMux {
	metrics.Register(r)
	mux := http.NewServeMux()
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, r}
	handler := promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(r, handler))
	return mux
}

// awaitTermSignal blocks until SIGINT or SIGTERM, then runs closeFn.
func awaitTermSignal(closeFn func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	log.Infof("signal received: %v", sig)

	closeFn()
}
