package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/fuel"
	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/service"
)

func testFuel() config.Fuel {
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

func TestRunHappyPath(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{
		"050": 120.0, "019": 30.0,
		"001": 200.0, "002": 50.0, "003": 10.0,
		"062": 15.0,
	})
	updater := &mockUpdater{
		summaries: []service.SheetSummary{{Sheet: "Fuel Gallons", Row: 4, Inserted: true}},
	}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	result, err := e.Run(context.Background(), testWindow(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.loginCalls)
	assert.Equal(t, []string{"050", "019", "001", "002", "003", "062"}, fetcher.fetched,
		"prefixes fetched in category order")
	assert.Equal(t, 1, fetcher.closeCalls, "session released on success")
	assert.Empty(t, fetcher.verified)

	assert.InDelta(t, 150.0, result.Aggregate.Diesel, 0.0001)
	assert.InDelta(t, 260.0, result.Aggregate.Regular, 0.0001)
	assert.InDelta(t, 15.0, result.Aggregate.DEF, 0.0001)
	assert.InDelta(t, 425.0, result.Aggregate.GrandTotal, 0.0001)

	require.Len(t, updater.got, 1)
	assert.Equal(t, "Oct 19th", updater.got[0].Window.Label)
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, "Fuel Gallons", result.Sheets[0].Sheet)
}

func TestRunLoginFailureAbortsPipeline(t *testing.T) {
	fetcher := newMockFetcher(nil)
	fetcher.loginErr = common.ErrAuthentication
	updater := &mockUpdater{}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(context.Background(), testWindow(), Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuthentication)
	assert.Empty(t, fetcher.fetched, "no fetches after failed login")
	assert.Empty(t, updater.got, "tracker untouched")
	assert.Equal(t, 1, fetcher.closeCalls, "session released on failure")
}

func TestRunFetchFailureAbortsBeforeUpdate(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{"050": 120.0})
	fetcher.fetchErr["019"] = common.ErrFooterMissing
	updater := &mockUpdater{}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(context.Background(), testWindow(), Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFooterMissing)
	assert.Contains(t, err.Error(), "019")
	assert.Equal(t, []string{"050", "019"}, fetcher.fetched,
		"fetch stops at the first failure")
	assert.Empty(t, updater.got)
	assert.Equal(t, 1, fetcher.closeCalls)
}

func TestRunUpdateFailurePropagates(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{
		"050": 1, "019": 1, "001": 1, "002": 1, "003": 1, "062": 1,
	})
	updater := &mockUpdater{updateErr: common.ErrFileLocked}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(context.Background(), testWindow(), Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFileLocked)
	assert.Equal(t, 1, fetcher.closeCalls)
}

func TestRunVerifyPaginationOptIn(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{
		"050": 1, "019": 1, "001": 1, "002": 1, "003": 1, "062": 1,
	})
	updater := &mockUpdater{}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(context.Background(), testWindow(), Options{VerifyPagination: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"050"}, fetcher.verified,
		"pagination checked on the first configured prefix")
}

func TestRunVerifyPaginationErrorIsNonFatal(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{
		"050": 1, "019": 1, "001": 1, "002": 1, "003": 1, "062": 1,
	})
	fetcher.verifyError = errors.New("selector vanished")
	updater := &mockUpdater{}

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(context.Background(), testWindow(), Options{VerifyPagination: true})

	assert.NoError(t, err, "pagination check problems never abort the run")
	assert.Len(t, updater.got, 1)
}

func TestRunCanceledContext(t *testing.T) {
	fetcher := newMockFetcher(map[string]float64{"050": 1})
	updater := &mockUpdater{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(fetcher, fuel.New(testFuel()), updater, testFuel())
	_, err := e.Run(ctx, testWindow(), Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fetcher.closeCalls)
}
