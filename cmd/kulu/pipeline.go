package main

import (
	"fmt"

	"github.com/kulucloud/kulu/config"
	"github.com/kulucloud/kulu/discovery"
	"github.com/kulucloud/kulu/metrics"
	"github.com/kulucloud/kulu/orchestrator"
	"github.com/kulucloud/kulu/pricing"
	"github.com/kulucloud/kulu/recommend"
	"github.com/kulucloud/kulu/storage"
)

// buildPipeline wires the scan pipeline from config. The caller owns
// closing the returned store.
func buildPipeline(cfg *config.Config) (*orchestrator.Orchestrator, *storage.ReportStore, error) {
	pricer, err := pricing.NewDefaultEngine()
	if err != nil {
		return nil, nil, fmt.Errorf("building price engine: %w", err)
	}

	store, err := storage.Open(cfg.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening report store: %w", err)
	}

	orch := orchestrator.New(
		discovery.NewDiscoverer(),
		metrics.NewEnricher().WithConcurrency(cfg.MetricsConcurrency),
		pricer,
		recommend.NewEngine(pricer),
	).WithStore(store)

	return orch, store, nil
}
