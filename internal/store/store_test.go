// File: internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more
// robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

const sqlInsertDelta = `
        INSERT INTO page_deltas (session_id, url, interactive_updates, informative_updates, observed_at)
        VALUES ($1, $2, $3, $4, $5);
    `

func sampleDelta(url string) (schemas.ElementMap, schemas.ElementMap, schemas.SnapshotDelta) {
	interactive := schemas.ElementMap{
		"#search": {Selector: "#search", TagOrRole: "input", InputType: "text", IsEnabled: true},
	}
	informative := schemas.ElementMap{
		"heading[name='Results']": {Selector: "heading[name='Results']", TagOrRole: "heading", Contents: "Results", Role: "heading", IsEnabled: true},
	}
	delta := schemas.SnapshotDelta{
		URL:                url,
		InteractiveUpdates: interactive.Clone(),
		InformativeUpdates: informative.Clone(),
	}
	return interactive, informative, delta
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, uuid.NewString(), zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestSaveObservation(t *testing.T) {
	ctx := context.Background()
	elementColumns := []string{"session_id", "url", "side", "selector", "tag_or_role", "element", "observed_at"}

	t.Run("should persist both sides and the delta in one transaction", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		observedLogger := zap.New(observedZapCore)

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, uuid.NewString(), observedLogger)
		require.NoError(t, err)

		url := "https://example.com"
		interactive, informative, delta := sampleDelta(url)

		mockPool.ExpectBegin()
		mockPool.ExpectCopyFrom(pgx.Identifier{"page_elements"}, elementColumns).
			WillReturnResult(1)
		mockPool.ExpectCopyFrom(pgx.Identifier{"page_elements"}, elementColumns).
			WillReturnResult(1)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertDelta)).
			WithArgs(pgxmock.AnyArg(), url, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		// The deferred rollback after a successful commit reports ErrTxClosed.
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, store.SaveObservation(ctx, url, interactive, informative, delta))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "no errors should be logged on a clean commit")
	})

	t.Run("should skip empty sides and unchanged deltas", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, uuid.NewString(), zap.NewNop())
		require.NoError(t, err)

		// Only the interactive side has elements and the delta is empty, so a
		// single COPY runs.
		interactive := schemas.ElementMap{"#a": {Selector: "#a", TagOrRole: "button", IsEnabled: true}}

		mockPool.ExpectBegin()
		mockPool.ExpectCopyFrom(pgx.Identifier{"page_elements"}, elementColumns).
			WillReturnResult(1)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		err = store.SaveObservation(ctx, "https://example.com", interactive, nil, schemas.SnapshotDelta{URL: "https://example.com"})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should roll back when the copy fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, uuid.NewString(), zap.NewNop())
		require.NoError(t, err)

		url := "https://example.com"
		interactive, informative, delta := sampleDelta(url)

		copyErr := errors.New("copy failed")
		mockPool.ExpectBegin()
		mockPool.ExpectCopyFrom(pgx.Identifier{"page_elements"}, elementColumns).
			WillReturnError(copyErr)
		mockPool.ExpectRollback()

		err = store.SaveObservation(ctx, url, interactive, informative, delta)
		require.Error(t, err)
		assert.ErrorIs(t, err, copyErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fail on copy count mismatch", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, uuid.NewString(), zap.NewNop())
		require.NoError(t, err)

		url := "https://example.com"
		interactive, informative, delta := sampleDelta(url)

		mockPool.ExpectBegin()
		mockPool.ExpectCopyFrom(pgx.Identifier{"page_elements"}, elementColumns).
			WillReturnResult(0)
		mockPool.ExpectRollback()

		err = store.SaveObservation(ctx, url, interactive, informative, delta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestObservedURLs(t *testing.T) {
	ctx := context.Background()

	t.Run("should list urls oldest first", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		sessionID := uuid.NewString()
		store, err := New(ctx, mockPool, sessionID, zap.NewNop())
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{"url", "first_seen"}).
			AddRow("https://first.example", time.Now().Add(-time.Hour)).
			AddRow("https://second.example", time.Now())
		mockPool.ExpectQuery("SELECT url, MIN\\(observed_at\\)").
			WithArgs(sessionID).
			WillReturnRows(rows)

		urls, err := store.ObservedURLs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://first.example", "https://second.example"}, urls)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should propagate query errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, uuid.NewString(), zap.NewNop())
		require.NoError(t, err)

		queryErr := errors.New("connection reset")
		mockPool.ExpectQuery("SELECT url").WithArgs(pgxmock.AnyArg()).WillReturnError(queryErr)

		_, err = store.ObservedURLs(ctx)
		assert.ErrorIs(t, err, queryErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
