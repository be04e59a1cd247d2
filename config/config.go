package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/adrg/xdg"

	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/tetris"
)

var (
	cfgFile = "tetrisai/config.json"
)

// MaxHeight bounds the board height a config may ask for.
const MaxHeight = 64

type InvalidConfig struct {
	err   string
	cause error
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

func (e *InvalidConfig) Unwrap() error {
	return e.cause
}

// EngineConfig sizes the board and the enumeration fan-out.
type EngineConfig struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	SpawnColumn int `json:"spawn_column"`
	SpawnRow    int `json:"spawn_row"`
	Workers     int `json:"workers"`
	// CacheSize of zero disables the enumeration cache.
	CacheSize int `json:"cache_size"`
}

// SelfplayConfig holds defaults for the self-play binary.
type SelfplayConfig struct {
	Episodes int    `json:"episodes"`
	Workers  int    `json:"workers"`
	Policy   string `json:"policy"`
	Seed     uint64 `json:"seed"`
	Output   string `json:"output"`
	// DurationSeconds stops self-play early when positive.
	DurationSeconds int `json:"duration_seconds"`
}

// Duration returns the self-play time limit, zero meaning none.
func (s SelfplayConfig) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

type Config struct {
	Engine    EngineConfig       `json:"engine"`
	Heuristic agent.Weights      `json:"heuristic"`
	Rewards   agent.RewardConfig `json:"rewards"`
	Selfplay  SelfplayConfig     `json:"selfplay"`
}

// InitConfig loads the user's config file if there is one, falling back to
// DefaultConfig.
func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		config := DefaultConfig
		return &config, nil
	}
	return Load(absPath)
}

// Load reads the config at path over DefaultConfig, so missing keys keep
// their defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig
	if err := readCfgFile(path, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	e := c.Engine
	if e.Width < 4 {
		return &InvalidConfig{err: fmt.Sprintf("width %d is below 4", e.Width)}
	}
	if e.Height < 4 || e.Height > MaxHeight {
		return &InvalidConfig{err: fmt.Sprintf("height %d is outside [4, %d]", e.Height, MaxHeight)}
	}
	if err := tetris.ValidateSpawn(e.Width, e.Height, e.SpawnColumn, e.SpawnRow); err != nil {
		return &InvalidConfig{err: err.Error(), cause: err}
	}
	if e.Workers < 0 || e.CacheSize < 0 {
		return &InvalidConfig{err: "engine workers and cache_size must not be negative"}
	}
	s := c.Selfplay
	if s.Episodes < 0 || s.Workers < 0 || s.DurationSeconds < 0 {
		return &InvalidConfig{err: "selfplay episodes, workers and duration_seconds must not be negative"}
	}
	if _, err := agent.NewPolicy(s.Policy, c.Heuristic, 0); err != nil {
		return &InvalidConfig{err: err.Error(), cause: err}
	}
	return nil
}

// SessionConfig returns the engine settings as a tetris.Config. A new
// enumeration cache is created when CacheSize is positive.
func (c *Config) SessionConfig(seed uint64) tetris.Config {
	cfg := tetris.Config{
		Width:       c.Engine.Width,
		Height:      c.Engine.Height,
		SpawnColumn: c.Engine.SpawnColumn,
		SpawnRow:    c.Engine.SpawnRow,
		Workers:     c.Engine.Workers,
		Seed:        seed,
	}
	if c.Engine.CacheSize > 0 {
		cfg.Cache = tetris.NewEnumerationCache(c.Engine.CacheSize)
	}
	return cfg
}

// Save writes the config to the user's xdg config directory.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	return saveCfgFile(path, c, 0664)
}

func saveCfgFile(filePath string, a any, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, a); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return &InvalidConfig{err: fmt.Sprintf("%s: offset %d: %v", filePath, syntax.Offset, err), cause: err}
		}
		return &InvalidConfig{err: fmt.Sprintf("%s: %v", filePath, err), cause: err}
	}
	return nil
}
