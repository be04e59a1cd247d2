package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/config"
	"github.com/plus3/tetrisai/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Engine.Width)
	assert.Equal(t, 19, cfg.Engine.Height)
	assert.Equal(t, 4, cfg.Engine.SpawnColumn)
	assert.Equal(t, 16, cfg.Engine.SpawnRow)
	assert.Equal(t, agent.DefaultWeights, cfg.Heuristic)
	assert.Equal(t, "heuristic", cfg.Selfplay.Policy)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `{"engine": {"workers": 8}, "selfplay": {"policy": "random", "duration_seconds": 30}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 10, cfg.Engine.Width)
	assert.Equal(t, "random", cfg.Selfplay.Policy)
	assert.Equal(t, 30.0, cfg.Selfplay.Duration().Seconds())
	assert.Equal(t, agent.DefaultRewards(), cfg.Rewards)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		is   error
	}{
		{"narrow board", `{"engine": {"width": 3}}`, nil},
		{"tall board", `{"engine": {"height": 65}}`, nil},
		{"spawn too high", `{"engine": {"spawn_row": 18}}`, tetris.ErrInvalidSpawn},
		{"spawn at the wall", `{"engine": {"spawn_column": 9}}`, tetris.ErrInvalidSpawn},
		{"negative workers", `{"engine": {"workers": -1}}`, nil},
		{"unknown policy", `{"selfplay": {"policy": "mcts"}}`, agent.ErrUnknownPolicy},
		{"malformed json", `{"engine": `, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)

			var invalid *config.InvalidConfig
			assert.True(t, errors.As(err, &invalid), "got %T: %v", err, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveToRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Engine.Width = 12
	cfg.Engine.SpawnColumn = 5
	cfg.Heuristic.Holes = -1

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestSessionConfig(t *testing.T) {
	cfg := config.DefaultConfig
	sc := cfg.SessionConfig(42)
	assert.Equal(t, uint64(42), sc.Seed)
	assert.Equal(t, cfg.Engine.Workers, sc.Workers)
	assert.NotNil(t, sc.Cache)

	cfg.Engine.CacheSize = 0
	assert.Nil(t, cfg.SessionConfig(1).Cache)
}
