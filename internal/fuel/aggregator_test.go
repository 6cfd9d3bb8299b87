package fuel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/model"
)

func testMapping() config.Fuel {
	return config.Fuel{
		DieselPrefixes:  []string{"050", "019"},
		RegularPrefixes: []string{"001", "002", "003"},
		DEFPrefixes:     []string{"062"},
	}
}

func testWindow() model.ReportingWindow {
	return model.ReportingWindow{
		Start: time.Date(2025, time.October, 13, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.October, 19, 23, 59, 59, 0, time.UTC),
		Label: "Oct 19th",
	}
}

func TestAggregate(t *testing.T) {
	agg := New(testMapping())

	totals := []model.PrefixTotal{
		{Prefix: "050", Quantity: 120.0},
		{Prefix: "019", Quantity: 30.0},
		{Prefix: "001", Quantity: 200.0},
		{Prefix: "002", Quantity: 50.0},
		{Prefix: "003", Quantity: 10.0},
		{Prefix: "062", Quantity: 15.0},
	}

	week, err := agg.Aggregate(testWindow(), totals)
	require.NoError(t, err)

	assert.InDelta(t, 150.0, week.Diesel, 0.0001)
	assert.InDelta(t, 260.0, week.Regular, 0.0001)
	assert.InDelta(t, 15.0, week.DEF, 0.0001)
	assert.InDelta(t, 425.0, week.GrandTotal, 0.0001)
	assert.Equal(t, "Oct 19th", week.Window.Label)

	// The additive invariant is exact, not approximate.
	assert.Equal(t, week.Diesel+week.Regular+week.DEF, week.GrandTotal)
	assert.Equal(t, week.PrefixSum(), week.GrandTotal)
}

func TestAggregateUnmappedPrefix(t *testing.T) {
	agg := New(testMapping())

	totals := []model.PrefixTotal{
		{Prefix: "050", Quantity: 120.0},
		{Prefix: "777", Quantity: 9.0},
	}

	_, err := agg.Aggregate(testWindow(), totals)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnmappedPrefix)
	assert.Contains(t, err.Error(), "777")
}

func TestAggregateEmptyCategories(t *testing.T) {
	agg := New(testMapping())

	// A week where only diesel moved. Zero-quantity prefixes are valid
	// results, not errors.
	totals := []model.PrefixTotal{
		{Prefix: "050", Quantity: 1565.8},
		{Prefix: "019", Quantity: 0.0},
		{Prefix: "062", Quantity: 0.0},
	}

	week, err := agg.Aggregate(testWindow(), totals)
	require.NoError(t, err)

	assert.InDelta(t, 1565.8, week.Diesel, 0.0001)
	assert.Zero(t, week.Regular)
	assert.Zero(t, week.DEF)
	assert.InDelta(t, 1565.8, week.GrandTotal, 0.0001)
}

func TestAggregateNoTotals(t *testing.T) {
	agg := New(testMapping())

	week, err := agg.Aggregate(testWindow(), nil)
	require.NoError(t, err)
	assert.Zero(t, week.GrandTotal)
}
