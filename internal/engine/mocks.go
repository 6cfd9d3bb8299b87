package engine

import (
	"context"

	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/service"
)

// mockFetcher scripts portal responses for engine tests.
type mockFetcher struct {
	totals      map[string]float64
	loginErr    error
	fetchErr    map[string]error
	fetched     []string
	verified    []string
	loginCalls  int
	closeCalls  int
	verifyError error
}

func newMockFetcher(totals map[string]float64) *mockFetcher {
	return &mockFetcher{
		totals:   totals,
		fetchErr: map[string]error{},
	}
}

func (m *mockFetcher) Login(_ context.Context) error {
	m.loginCalls++
	return m.loginErr
}

func (m *mockFetcher) FetchTotal(_ context.Context, prefix string, _ model.ReportingWindow) (float64, error) {
	m.fetched = append(m.fetched, prefix)
	if err := m.fetchErr[prefix]; err != nil {
		return 0, err
	}
	return m.totals[prefix], nil
}

func (m *mockFetcher) VerifyPagination(_ context.Context, prefix string, _ model.ReportingWindow) error {
	m.verified = append(m.verified, prefix)
	return m.verifyError
}

func (m *mockFetcher) Close() error {
	m.closeCalls++
	return nil
}

// mockUpdater records the aggregate it was asked to write.
type mockUpdater struct {
	updateErr error
	got       []model.AggregatedWeek
	summaries []service.SheetSummary
}

func (m *mockUpdater) Update(_ context.Context, agg model.AggregatedWeek) ([]service.SheetSummary, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.got = append(m.got, agg)
	return m.summaries, nil
}
