package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSkipLogRecordAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profiles_skipped.csv")

	log, err := OpenSkipLog(path, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, log.Keys())
	require.NoError(t, log.Record("alice", "2500 subscribers above max 1000"))
	require.NoError(t, log.Record("bob", "no social links"))
	require.NoError(t, log.Close())

	rows := readAllRows(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, skipHeader, rows[0])
	require.Equal(t, "alice", rows[1][0])
	require.Equal(t, "2500 subscribers above max 1000", rows[1][1])
	require.NotEmpty(t, rows[1][2])

	// Reopening surfaces the previously recorded identities.
	log, err = OpenSkipLog(path, zap.NewNop())
	require.NoError(t, err)
	defer log.Close() //nolint:errcheck
	require.Equal(t, []string{"alice", "bob"}, log.Keys())
}

func TestSkipLogHeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profiles_skipped.csv")

	log, err := OpenSkipLog(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, log.Record("alice", "error: timeout"))
	require.NoError(t, log.Close())

	log, err = OpenSkipLog(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, log.Record("bob", "error: timeout"))
	require.NoError(t, log.Close())

	rows := readAllRows(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, skipHeader, rows[0])
}
