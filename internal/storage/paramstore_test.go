package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultIsIdempotent(t *testing.T) {
	s := setupTestDB(t)

	require.NoError(t, s.EnsureDefault())
	require.NoError(t, s.EnsureDefault())

	var rows []AlgorithmParameters
	require.NoError(t, s.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsActive)
}

func TestActivateParameterSetEnforcesExclusivity(t *testing.T) {
	s := setupTestDB(t)
	require.NoError(t, s.EnsureDefault())
	require.NoError(t, s.CreateParameterSet(AlgorithmParameters{ParameterSet: "aggressive", BestsellerMultiplier: 2}))

	require.NoError(t, s.ActivateParameterSet("aggressive"))

	active, err := s.ActiveParameterSet()
	require.NoError(t, err)
	require.Equal(t, "aggressive", active.ParameterSet)

	def, err := s.GetParameterSet(DefaultParameterSetName)
	require.NoError(t, err)
	require.False(t, def.IsActive)
}

func TestActivateUnknownParameterSet(t *testing.T) {
	s := setupTestDB(t)
	require.NoError(t, s.EnsureDefault())
	require.ErrorIs(t, s.ActivateParameterSet("does-not-exist"), ErrNotFound)
}
