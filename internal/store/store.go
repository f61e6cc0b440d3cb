// File: internal/store/store.go

// Package store archives observation history in PostgreSQL so a session's
// page evolution can be inspected offline. Archiving is strictly optional:
// the in-memory cache is the source of truth and keeps working when no
// database is configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store persists element snapshots and deltas for one session.
type Store struct {
	pool      DBPool
	sessionID string
	log       *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, sessionID string, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool:      pool,
		sessionID: sessionID,
		log:       logger.Named("store"),
	}, nil
}

// SaveObservation writes the full element baselines and the delta of one
// observation in a single transaction. Implements pagecache.Archive.
func (s *Store) SaveObservation(ctx context.Context, url string, interactive, informative schemas.ElementMap, delta schemas.SnapshotDelta) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	observedAt := time.Now().UTC()

	if err := s.copyElements(ctx, tx, url, "interactive", interactive, observedAt); err != nil {
		return err
	}
	if err := s.copyElements(ctx, tx, url, "informative", informative, observedAt); err != nil {
		return err
	}
	if err := s.insertDelta(ctx, tx, url, delta, observedAt); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// copyElements bulk-inserts one side's baseline via COPY.
func (s *Store) copyElements(ctx context.Context, tx pgx.Tx, url, side string, elements schemas.ElementMap, observedAt time.Time) error {
	if len(elements) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(elements))
	for sel, elem := range elements {
		payload, err := jsonAPI.Marshal(elem)
		if err != nil {
			return fmt.Errorf("failed to marshal element %q: %w", sel, err)
		}
		rows = append(rows, []interface{}{
			s.sessionID, url, side, sel, elem.TagOrRole, payload, observedAt,
		})
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"page_elements"},
		[]string{"session_id", "url", "side", "selector", "tag_or_role", "element", "observed_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy %s elements: %w", side, err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("mismatch in copied %s element count: expected %d, got %d", side, len(rows), copyCount)
	}
	return nil
}

// insertDelta records which selectors changed in this observation.
func (s *Store) insertDelta(ctx context.Context, tx pgx.Tx, url string, delta schemas.SnapshotDelta, observedAt time.Time) error {
	if !delta.Changed() {
		return nil
	}

	interactiveJSON, err := jsonAPI.Marshal(delta.InteractiveUpdates)
	if err != nil {
		return fmt.Errorf("failed to marshal interactive delta: %w", err)
	}
	informativeJSON, err := jsonAPI.Marshal(delta.InformativeUpdates)
	if err != nil {
		return fmt.Errorf("failed to marshal informative delta: %w", err)
	}

	sql := `
        INSERT INTO page_deltas (session_id, url, interactive_updates, informative_updates, observed_at)
        VALUES ($1, $2, $3, $4, $5);
    `
	if _, err := tx.Exec(ctx, sql, s.sessionID, url, interactiveJSON, informativeJSON, observedAt); err != nil {
		return fmt.Errorf("failed to insert delta: %w", err)
	}
	return nil
}

// ObservedURLs lists the URLs this session has archived, oldest first.
func (s *Store) ObservedURLs(ctx context.Context) ([]string, error) {
	query := `
        SELECT url, MIN(observed_at) AS first_seen
        FROM page_elements
        WHERE session_id = $1
        GROUP BY url
        ORDER BY first_seen ASC;
    `
	rows, err := s.pool.Query(ctx, query, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observed urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		var firstSeen time.Time
		if err := rows.Scan(&url, &firstSeen); err != nil {
			return nil, fmt.Errorf("failed to scan url row: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return urls, nil
}
