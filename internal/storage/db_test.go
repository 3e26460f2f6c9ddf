package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppSettingsRoundTrip(t *testing.T) {
	s := setupTestDB(t)

	val, err := s.GetString("missing")
	require.NoError(t, err)
	require.Equal(t, "", val)

	require.NoError(t, s.SetString("file_executor_size", "4"))
	val, err = s.GetString("file_executor_size")
	require.NoError(t, err)
	require.Equal(t, "4", val)

	// Upsert overwrites rather than duplicating the row.
	require.NoError(t, s.SetString("file_executor_size", "8"))
	val, err = s.GetString("file_executor_size")
	require.NoError(t, err)
	require.Equal(t, "8", val)
}

func TestCheckpointIsSafeOnFreshDB(t *testing.T) {
	s := setupTestDB(t)
	require.NoError(t, s.Checkpoint())
}
