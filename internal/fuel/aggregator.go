// Package fuel aggregates per-prefix portal totals into category totals.
package fuel

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/model"
)

// sanityTolerance bounds the acceptable drift between the grand total and
// the raw per-prefix sum. Quantities are volumes aggregated by addition, so
// anything beyond float noise means a prefix was double-counted or dropped.
const sanityTolerance = 0.01

// Aggregator partitions prefix totals by the configured category mapping.
type Aggregator struct {
	mapping config.Fuel
}

// New creates an Aggregator for the given prefix-to-category mapping.
func New(mapping config.Fuel) *Aggregator {
	return &Aggregator{mapping: mapping}
}

// Aggregate sums the fetched totals per category and computes the grand
// total as diesel + regular + DEF. A prefix with no category mapping is
// fatal; a mismatch between the grand total and the raw prefix sum is
// logged as a warning and the result is still returned.
func (a *Aggregator) Aggregate(window model.ReportingWindow, totals []model.PrefixTotal) (model.AggregatedWeek, error) {
	agg := model.AggregatedWeek{
		Window:   window,
		Prefixes: totals,
	}

	for _, pt := range totals {
		cat, ok := a.mapping.CategoryFor(pt.Prefix)
		if !ok {
			return model.AggregatedWeek{}, fmt.Errorf("%w: %q", common.ErrUnmappedPrefix, pt.Prefix)
		}

		switch cat {
		case model.CategoryDiesel:
			agg.Diesel += pt.Quantity
		case model.CategoryRegular:
			agg.Regular += pt.Quantity
		case model.CategoryDEF:
			agg.DEF += pt.Quantity
		}

		slog.Debug("Prefix total recorded",
			"prefix", pt.Prefix,
			"category", cat,
			"quantity", pt.Quantity)
	}

	agg.GrandTotal = agg.Diesel + agg.Regular + agg.DEF

	if prefixSum := agg.PrefixSum(); math.Abs(prefixSum-agg.GrandTotal) > sanityTolerance {
		slog.Warn("Sanity check failed: prefix sum disagrees with category totals",
			"prefix_sum", prefixSum,
			"grand_total", agg.GrandTotal,
			"week", window.Label)
	}

	slog.Info("Fuel totals aggregated",
		"week", window.Label,
		"diesel", agg.Diesel,
		"regular", agg.Regular,
		"def", agg.DEF,
		"grand_total", agg.GrandTotal)

	return agg, nil
}
