package config

import (
	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/tetris"
)

var DefaultConfig Config

func init() {
	DefaultConfig = Config{
		Engine: EngineConfig{
			Width:       tetris.DefaultWidth,
			Height:      tetris.DefaultHeight,
			SpawnColumn: tetris.DefaultSpawnColumn,
			SpawnRow:    tetris.DefaultSpawnRow,
			Workers:     4,
			CacheSize:   tetris.DefaultCacheSize,
		},
		Heuristic: agent.DefaultWeights,
		Rewards:   agent.DefaultRewards(),
		Selfplay: SelfplayConfig{
			Episodes: 100,
			Workers:  4,
			Policy:   "heuristic",
			Output:   "selfplay.csv",
		},
	}
}
