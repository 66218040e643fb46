// Command reclaim runs one memory reclamation outside a node-graph host,
// useful for checking privileges and accelerator detection on a machine
// before wiring the nodes into a pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmswth/reclaim/internal/accel"
	"github.com/jmswth/reclaim/internal/config"
	"github.com/jmswth/reclaim/internal/logging"
	"github.com/jmswth/reclaim/internal/memstat"
	"github.com/jmswth/reclaim/internal/oscache"
	"github.com/jmswth/reclaim/internal/reclaim"
	"github.com/jmswth/reclaim/nodes"
)

func main() {
	aggressive := flag.Bool("aggressive", false, "Unload models and drop OS caches in addition to the basic cleanup")
	metricsAddr := flag.String("metrics", "", "Address to serve Prometheus metrics on (empty disables the listener)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Config errors happen before the logger exists
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid logger configuration:", err)
		os.Exit(1)
	}

	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		go func() {
			logger.Info().Str("address", addr).Msg("starting metrics server")
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	device, err := accel.Detect()
	if err != nil {
		logger.Info().Err(err).Msg("no accelerator detected; accelerator steps will be skipped")
	}

	// No host model registry outside a node-graph pipeline
	clearer := oscache.NewWithTimeouts(logger, cfg.SyncTimeout, cfg.DropTimeout)
	reclaimer := reclaim.New(device, nil, memstat.NewSystemReader(), clearer, logger)

	pack := nodes.NewPack(reclaimer, logger)
	pack.Announce()

	report := reclaimer.Reclaim(context.Background(), *aggressive)
	if report.HasWarnings() {
		logger.Warn().Int("warnings", len(report.Warnings)).Msg("reclamation completed with warnings")
	}
}
