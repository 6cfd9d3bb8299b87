package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/service"
)

// sessionState tracks the session's lifecycle so misordered calls fail
// loudly instead of driving an unauthenticated browser.
type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticating
	stateAuthenticated
	stateFetching
	stateFailed
)

// loginPollInterval paces the wait for the post-login redirect.
const loginPollInterval = 500 * time.Millisecond

// loginErrorJS reads any error banner the portal renders when it echoes the
// login page back after a rejected submission.
const loginErrorJS = `(() => {
	const el = document.querySelector(".alert-danger, .login-error, [class*='login'] [class*='error']");
	return el ? el.innerText.trim() : "";
})()`

// Session is an authenticated browser-automation session against the
// portal. It is single-use: Start, Login, any number of FetchTotal calls,
// Close. Close must run on every exit path.
type Session struct {
	cfg          config.Portal
	ctx          context.Context
	allocCancel  context.CancelFunc
	cancelBrowse context.CancelFunc
	state        sessionState
	closed       bool
}

var _ service.TotalFetcher = (*Session)(nil)

// NewSession launches the browser process. The visible flag keeps the
// browser window on screen, which helps when the portal changes its markup.
func NewSession(ctx context.Context, cfg config.Portal, visible bool) (*Session, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if visible {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.Flag("start-maximized", true),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Launch now so a missing browser binary surfaces here, not mid-login.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	slog.Info("Browser started", "visible", visible)

	return &Session{
		cfg:          cfg,
		ctx:          browserCtx,
		allocCancel:  allocCancel,
		cancelBrowse: browserCancel,
	}, nil
}

// Login submits the credentials and waits for the portal to navigate away
// from the login page. Both failure modes, a login form that never loads
// and an echoed login page with an error banner, map to ErrAuthentication.
func (s *Session) Login(ctx context.Context) error {
	if s.state != stateUnauthenticated {
		return fmt.Errorf("login called in state %d", s.state)
	}
	s.state = stateAuthenticating

	slog.Info("Navigating to login page", "url", s.cfg.LoginURL)

	formCtx, cancel := context.WithTimeout(s.ctx, s.cfg.LoginTimeout)
	defer cancel()

	err := chromedp.Run(formCtx,
		chromedp.Navigate(s.cfg.LoginURL),
		chromedp.WaitVisible(`input[name="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"]`, s.cfg.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, s.cfg.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		s.state = stateFailed
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Error("Login form did not load", "timeout", s.cfg.LoginTimeout)
			return fmt.Errorf("%w: login form did not load within %s", common.ErrAuthentication, s.cfg.LoginTimeout)
		}
		return fmt.Errorf("%w: submitting login form: %v", common.ErrAuthentication, err)
	}

	slog.Info("Credentials submitted, waiting for redirect")

	deadline := time.Now().Add(s.cfg.LoginTimeout)
	for time.Now().Before(deadline) {
		var location string
		if err := chromedp.Run(s.ctx, chromedp.Location(&location)); err != nil {
			s.state = stateFailed
			return fmt.Errorf("%w: reading location after login: %v", common.ErrAuthentication, err)
		}

		if !strings.Contains(strings.ToLower(location), "login") {
			s.state = stateAuthenticated
			slog.Info("Login successful", "location", location)
			return nil
		}

		var banner string
		if err := chromedp.Run(s.ctx, chromedp.Evaluate(loginErrorJS, &banner)); err == nil && banner != "" {
			s.state = stateFailed
			slog.Error("Portal rejected credentials", "message", banner)
			return fmt.Errorf("%w: portal rejected credentials: %s", common.ErrAuthentication, banner)
		}

		select {
		case <-ctx.Done():
			s.state = stateFailed
			return ctx.Err()
		case <-time.After(loginPollInterval):
		}
	}

	s.state = stateFailed
	slog.Error("Still on login page after submit", "timeout", s.cfg.LoginTimeout)
	return fmt.Errorf("%w: still on login page after %s", common.ErrAuthentication, s.cfg.LoginTimeout)
}

// FetchTotal navigates to the line-items view for one prefix and reads the
// quantity total from the table footer. The footer renders after the table
// itself, so an empty footer is re-read on a fixed retry budget before it
// becomes ErrFooterMissing.
func (s *Session) FetchTotal(ctx context.Context, prefix string, window model.ReportingWindow) (float64, error) {
	if s.state != stateAuthenticated {
		return 0, fmt.Errorf("fetch called in state %d", s.state)
	}
	s.state = stateFetching
	defer func() {
		if s.state == stateFetching {
			s.state = stateAuthenticated
		}
	}()

	url := lineItemsURL(s.cfg.BaseURL, s.cfg.SiteCode, s.cfg.Department, prefix, window)
	slog.Info("Fetching prefix total",
		"prefix", prefix,
		"week", window.Label,
		"url", url)

	if err := s.awaitTable(url); err != nil {
		s.state = stateFailed
		return 0, fmt.Errorf("waiting for results table for prefix %s: %w", prefix, err)
	}

	tbl, err := s.snapshotTable()
	if err != nil {
		s.state = stateFailed
		return 0, err
	}

	// The header is stable once the table exists; a missing quantity
	// column will not appear on retry.
	col, err := tbl.quantityColumn(s.cfg.QuantityHeader)
	if err != nil {
		s.state = stateFailed
		common.LogError(err, "Quantity column not found", common.Fields{
			"prefix":  prefix,
			"wanted":  s.cfg.QuantityHeader,
			"headers": tbl.headers,
		})
		return 0, err
	}

	var qty float64
	err = common.WithRetry(ctx, func() error {
		snapshot, snapErr := s.snapshotTable()
		if snapErr != nil {
			return snapErr
		}
		if snapshot.footerEmpty() {
			return fmt.Errorf("%w: footer not rendered for prefix %s", common.ErrFooterMissing, prefix)
		}

		qty, snapErr = snapshot.footerQuantity(col)
		return snapErr
	}, service.RetryOptions{
		MaxAttempts: s.cfg.FetchAttempts,
		Delay:       s.cfg.FetchDelay,
	})
	if err != nil {
		s.state = stateFailed
		common.LogError(err, "Footer quantity unavailable", common.Fields{
			"prefix":   prefix,
			"week":     window.Label,
			"attempts": s.cfg.FetchAttempts,
		})
		return 0, err
	}

	slog.Info("Prefix total fetched", "prefix", prefix, "quantity", qty)
	return qty, nil
}

// VerifyPagination changes the table's page size and confirms the footer
// total is unaffected. Pagination should never alter a summary row;
// discrepancies are logged but never fail the run.
func (s *Session) VerifyPagination(ctx context.Context, prefix string, window model.ReportingWindow) error {
	first, err := s.FetchTotal(ctx, prefix, window)
	if err != nil {
		return err
	}

	var changed bool
	err = chromedp.Run(s.ctx, chromedp.Evaluate(changePageSizeJS, &changed))
	if err != nil || !changed {
		slog.Info("Page size selector not found, skipping pagination check")
		return nil
	}

	if err := chromedp.Run(s.ctx, chromedp.Sleep(s.cfg.FetchDelay)); err != nil {
		return err
	}

	tbl, err := s.snapshotTable()
	if err != nil {
		return err
	}
	col, err := tbl.quantityColumn(s.cfg.QuantityHeader)
	if err != nil {
		return err
	}
	second, err := tbl.footerQuantity(col)
	if err != nil {
		return err
	}

	if math.Abs(first-second) > 0.01 {
		slog.Warn("Pagination check failed: footer total changed with page size",
			"prefix", prefix,
			"first", first,
			"second", second)
	} else {
		slog.Info("Pagination check passed", "prefix", prefix, "quantity", first)
	}

	return nil
}

// awaitTable navigates and blocks until the client-side renderer has
// produced the table skeleton and at least one body row.
func (s *Session) awaitTable(url string) error {
	tableCtx, cancel := context.WithTimeout(s.ctx, s.cfg.TableTimeout)
	defer cancel()

	return chromedp.Run(tableCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("table thead", chromedp.ByQuery),
		chromedp.WaitVisible("table tbody tr", chromedp.ByQuery),
	)
}

// snapshotTable captures the rendered table's outer HTML and parses it.
func (s *Session) snapshotTable() (*resultsTable, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("table", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("capturing results table: %w", err)
	}
	return parseResultsTable(html)
}

// Close releases the browser process. Safe to call repeatedly.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.cancelBrowse()
	s.allocCancel()
	slog.Info("Browser closed")
	return nil
}

// changePageSizeJS selects a different records-per-page option and fires a
// change event so the app re-renders. Returns false when the view has no
// page-size selector.
const changePageSizeJS = `(() => {
	const sel = document.querySelector("select[ng-model*='pageSize'], select[ng-model*='recordsPerPage']");
	if (!sel || sel.options.length < 2) {
		return false;
	}
	const current = sel.value;
	for (const opt of sel.options) {
		if (opt.value !== current) {
			sel.value = opt.value;
			break;
		}
	}
	sel.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
})()`
