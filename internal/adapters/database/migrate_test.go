package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestPredictionsMigration_ConstrainsStatus(t *testing.T) {
	data, err := fs.ReadFile(migrationFiles, "migrations/000003_create_predictions.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "backtest_status IN ('pending', 'completed')")
	assert.Contains(t, string(data), "initial_prices     JSONB")
}
