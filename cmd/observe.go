// File: cmd/observe.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/browser"
	"github.com/xkilldash9x/pagescope-cli/internal/observability"
	"github.com/xkilldash9x/pagescope-cli/internal/pagecache"
	"github.com/xkilldash9x/pagescope-cli/internal/service"
	"github.com/xkilldash9x/pagescope-cli/internal/store"
)

var jsonOut = jsoniter.ConfigCompatibleWithStandardLibrary

// observationReport is the JSON document printed per observation.
type observationReport struct {
	URL         string                `json:"url"`
	ObservedAt  time.Time             `json:"observedAt"`
	Interactive []schemas.Element     `json:"interactive"`
	Informative []schemas.Element     `json:"informative"`
	Delta       schemas.SnapshotDelta `json:"delta"`
}

func newObserveCommand() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		rounds   int
	)

	observeCmd := &cobra.Command{
		Use:   "observe <url> [url...]",
		Short: "Extract and diff the semantic element model of one or more pages",
		Long: `Observe navigates to each URL, captures a DOM and accessibility snapshot,
classifies interactive and informative elements, and prints the element lists
plus the delta against the previous observation of the same URL. With --watch
the page is re-observed on an interval and only non-empty deltas are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if interval <= 0 {
				interval = cfg.Cache.ObserveInterval
			}

			archive, cleanup, sessionID, err := openArchive(ctx, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			// Each URL gets its own tab; pages share no mutable state, so
			// they run concurrently.
			g, gctx := errgroup.WithContext(ctx)
			for _, url := range args {
				url := url
				g.Go(func() error {
					return observeURL(gctx, url, sessionID, archive, watch, interval, rounds, logger)
				})
			}
			return g.Wait()
		},
	}

	observeCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep re-observing and print deltas")
	observeCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "minimum spacing between observations in watch mode")
	observeCmd.Flags().IntVarP(&rounds, "rounds", "n", 0, "stop after this many watch rounds (0 = until interrupted)")

	return observeCmd
}

// openArchive connects the optional snapshot archive. With no database URL
// configured it returns a nil archive and a no-op cleanup.
func openArchive(ctx context.Context, logger *zap.Logger) (pagecache.Archive, func(), string, error) {
	sessionID := uuid.NewString()
	if cfg.Database.URL == "" {
		return nil, func() {}, sessionID, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open archive database: %w", err)
	}
	archive, err := store.New(ctx, pool, sessionID, logger)
	if err != nil {
		pool.Close()
		return nil, nil, "", err
	}
	logger.Info("Snapshot archive enabled", zap.String("session_id", sessionID))
	return archive, pool.Close, sessionID, nil
}

// observeURL drives the observe loop for one page.
func observeURL(ctx context.Context, url, sessionID string, archive pagecache.Archive, watch bool, interval time.Duration, rounds int, logger *zap.Logger) error {
	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	model := service.NewWithSessionID(sessionID, session, cfg.Extractor, archive, logger)

	if err := session.Navigate(ctx, url); err != nil {
		return err
	}

	delta, err := model.Observe(ctx)
	if err != nil {
		return err
	}
	if err := printReport(model, delta); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	// The limiter spaces re-observations; an early page mutation never makes
	// the loop spin faster than the configured interval.
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for round := 1; rounds == 0 || round < rounds; round++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil // Interrupted; not an error in watch mode.
			}
			return err
		}

		delta, err := model.Observe(ctx)
		if err != nil {
			logger.Warn("Observation failed; retrying next round", zap.String("url", url), zap.Error(err))
			continue
		}
		if !delta.Changed() {
			continue
		}
		if err := printDelta(delta); err != nil {
			return err
		}
	}
	return nil
}

// printReport lists under the URL the browser actually reported at snapshot
// time. Redirects and normalization can make it differ from the URL the user
// asked for, and the cache is keyed by the reported one.
func printReport(model *service.PageModel, delta schemas.SnapshotDelta) error {
	report := observationReport{
		URL:         delta.URL,
		ObservedAt:  time.Now().UTC(),
		Interactive: model.ListInteractive(delta.URL),
		Informative: model.ListInformative(delta.URL),
		Delta:       delta,
	}
	return encodeTo(os.Stdout, report)
}

func printDelta(delta schemas.SnapshotDelta) error {
	return encodeTo(os.Stdout, delta)
}

func encodeTo(w *os.File, v interface{}) error {
	enc := jsonOut.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
