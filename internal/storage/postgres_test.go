package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/eduflow/internal"
)

// Set POSTGRES_TEST_DSN to run against a real server.
func newTestPostgres(t *testing.T, maxConns int) *PostgresStorage {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%spool_max_conns=%d", dsn, sep, maxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := NewPostgresStorage(ctx, dsn, internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPostgresSubscribersDoNotHoldPoolConnections(t *testing.T) {
	p := newTestPostgres(t, 2)
	ctx := context.Background()
	prefix := fmt.Sprintf("pgtest-%d-", time.Now().UnixNano())

	recorders := make([]*recorder, 6)
	for i := range recorders {
		recorders[i] = &recorder{}
		cancel, err := p.Subscribe(ctx, fmt.Sprintf("%s%d", prefix, i), recorders[i].record)
		require.NoError(t, err)
		t.Cleanup(cancel)
	}
	assert.Equal(t, int32(0), p.pool.Stat().AcquiredConns())

	setCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, p.Set(setCtx, prefix+"3", testDocument()))

	assert.Eventually(t, func() bool {
		snap, ok := recorders[3].last()
		return ok && snap.Exists
	}, 5*time.Second, 20*time.Millisecond)
	snap, _ := recorders[0].last()
	assert.False(t, snap.Exists)
}

func TestPostgresCloseTwice(t *testing.T) {
	p := newTestPostgres(t, 2)
	require.NoError(t, p.Close())
	assert.NotPanics(t, func() { _ = p.Close() })
}
