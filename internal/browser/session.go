// File: internal/browser/session.go

// Package browser adapts a headless Chrome instance (driven over the Chrome
// DevTools Protocol) to the PageDriver surface the semantic model consumes.
// All page-settling timeouts live here: the semantic core itself never waits
// on a live page.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/config"
)

// Session owns one browser tab and produces point-in-time page snapshots
// from it.
type Session struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger
}

// NewSession launches a browser and opens a tab. The parent context bounds
// the lifetime of the whole browser process.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(parts[0], parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(parts[0], true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Start the browser up front so a broken environment fails fast instead
	// of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
	}, nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
}

// Navigate loads url and waits for the document to become ready, bounded by
// the configured navigation timeout, then gives the page the configured
// settle wait before it is considered observable.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.NavigationTimeout)
	defer cancel()

	s.logger.Info("Navigating", zap.String("url", url))
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if s.cfg.SettleWait > 0 {
		actions = append(actions, chromedp.Sleep(s.cfg.SettleWait))
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Snapshot captures the DOM and the accessibility tree in a single CDP round
// trip, so both views describe the same page state.
func (s *Session) Snapshot(ctx context.Context) (*schemas.PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.NavigationTimeout)
	defer cancel()

	var (
		pageURL string
		rawHTML string
		axRoot  *schemas.AccessibilityNode
	)

	err := chromedp.Run(snapCtx,
		chromedp.Location(&pageURL),
		chromedp.OuterHTML("html", &rawHTML, chromedp.ByQuery),
		chromedp.ActionFunc(func(c context.Context) error {
			root, err := captureAXTree(c)
			if err != nil {
				return err
			}
			axRoot = root
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot capture failed: %w", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured DOM: %w", err)
	}

	s.logger.Debug("Captured snapshot", zap.String("url", pageURL), zap.Int("dom_bytes", len(rawHTML)))
	return &schemas.PageSnapshot{
		URL:           pageURL,
		Document:      doc,
		Accessibility: axRoot,
	}, nil
}

// Resolve turns a cached selector into a live target handle. A selector that
// no longer matches anything yields ErrTargetLost: the selector was valid as
// of the snapshot it came from, and only the browser can say whether it
// still is.
func (s *Session) Resolve(ctx context.Context, sel string) (schemas.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sel == "" || sel == "unknown" {
		return nil, fmt.Errorf("selector %q is not resolvable: %w", sel, schemas.ErrTargetLost)
	}

	checkCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.NavigationTimeout)
	defer cancel()

	var present bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	if err := chromedp.Run(checkCtx, chromedp.Evaluate(script, &present)); err != nil {
		return nil, fmt.Errorf("selector liveness check failed: %w", err)
	}
	if !present {
		return nil, fmt.Errorf("selector %q: %w", sel, schemas.ErrTargetLost)
	}

	return &target{session: s, selector: sel}, nil
}

// target is a locatable handle bound to one selector on the session's tab.
type target struct {
	session  *Session
	selector string
}

// Click clicks the first element matching the target's selector.
func (t *target) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	actionCtx, cancel := context.WithTimeout(t.session.tabCtx, t.session.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(actionCtx, chromedp.Click(t.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click on %q failed: %w", t.selector, err)
	}
	return nil
}

// Fill clears the matched element and types text into it.
func (t *target) Fill(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	actionCtx, cancel := context.WithTimeout(t.session.tabCtx, t.session.cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(actionCtx,
		chromedp.Clear(t.selector, chromedp.ByQuery),
		chromedp.SendKeys(t.selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill on %q failed: %w", t.selector, err)
	}
	return nil
}
