// Package config loads the coordinator's JSON configuration file and
// exposes it behind a thread-safe manager so a running server can reload
// it (SIGHUP) without tearing down in-flight requests.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// Duration is a time.Duration that marshals to/from JSON strings like
// "5s" or "2m", the way the project always has, just over JSON instead
// of TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the coordinator's full runtime configuration.
type Config struct {
	StateDir     string                     `json:"state_dir"`
	HTTP         HTTPConfig                 `json:"http"`
	MasterSchema string                     `json:"master_schema_path"`
	SeedCorpus   string                     `json:"seed_corpus_path"`
	Generation   GenerationConfig           `json:"generation"`
	AxisShares   map[axis.Axis][]axis.Share `json:"axis_shares,omitempty"`
	Codec        CodecConfig                `json:"codec"`
	Similarity   SimilarityConfig           `json:"similarity"`
}

// HTTPConfig is the server bind address.
type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// GenerationConfig controls target totals and generator/scheduler
// bounds.
type GenerationConfig struct {
	TargetTotal      int `json:"target_total"`
	GenerationTarget int `json:"generation_target,omitempty"`
	MaxAttempts      int `json:"max_attempts"`
	FIFOSize         int `json:"fifo_size"`

	// GenerationTargetExplicit records whether generation_target was
	// present in the loaded file, as opposed to left for Load to
	// default. It is never serialized: ResolveGenerationTarget uses it
	// to decide whether a seed-corpus count may still adjust the target.
	GenerationTargetExplicit bool `json:"-"`
}

// CodecConfig controls the external TOON codec subprocess.
type CodecConfig struct {
	Binary  string   `json:"binary"`
	Timeout Duration `json:"timeout"`
}

// SimilarityConfig controls the soft near-duplicate warning window.
// Both knobs are heuristic, so both are configurable.
type SimilarityConfig struct {
	WindowSize int     `json:"window_size"`
	Threshold  float64 `json:"threshold"`
}

// Clone returns a deep-enough copy of cfg so callers holding a snapshot
// never observe a concurrent mutation. Maps are shallow-copied since
// their value types are themselves copied by value (axis.Share slices
// are copied element-wise).
func (cfg *Config) Clone() *Config {
	if cfg == nil {
		return nil
	}
	out := *cfg
	out.AxisShares = cloneAxisShares(cfg.AxisShares)
	return &out
}

func cloneAxisShares(in map[axis.Axis][]axis.Share) map[axis.Axis][]axis.Share {
	if in == nil {
		return nil
	}
	out := make(map[axis.Axis][]axis.Share, len(in))
	for a, shares := range in {
		cp := make([]axis.Share, len(shares))
		copy(cp, shares)
		out[a] = cp
	}
	return out
}

// Load reads and validates a JSON configuration file, applying defaults
// for every field left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Generation.GenerationTargetExplicit = hasExplicitGenerationTarget(data)

	applyDefaults(&cfg)
	normalizePaths(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadManager reads config from path and returns an RWMutex-backed
// thread-safe manager.
func LoadManager(path string) (ConfigManager, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewManager(cfg), nil
}

// hasExplicitGenerationTarget reports whether the raw config file set
// generation.generation_target itself, as opposed to leaving it for
// Load to default from target_total (and, later, the seed corpus size).
func hasExplicitGenerationTarget(data []byte) bool {
	var probe struct {
		Generation struct {
			GenerationTarget *int `json:"generation_target"`
		} `json:"generation"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Generation.GenerationTarget != nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "127.0.0.1"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Generation.MaxAttempts == 0 {
		cfg.Generation.MaxAttempts = 50
	}
	if cfg.Generation.FIFOSize == 0 {
		cfg.Generation.FIFOSize = 32
	}
	if cfg.Generation.GenerationTarget == 0 {
		cfg.Generation.GenerationTarget = cfg.Generation.TargetTotal
	}
	if cfg.Codec.Binary == "" {
		cfg.Codec.Binary = "toon"
	}
	if cfg.Codec.Timeout.Duration == 0 {
		cfg.Codec.Timeout.Duration = 5 * time.Second
	}
	if cfg.Similarity.WindowSize == 0 {
		cfg.Similarity.WindowSize = 50
	}
	if cfg.Similarity.Threshold == 0 {
		cfg.Similarity.Threshold = 0.9
	}
}

func normalizePaths(cfg *Config) {
	if cfg.StateDir != "" {
		if abs, err := filepath.Abs(cfg.StateDir); err == nil {
			cfg.StateDir = abs
		}
	}
}

func validate(cfg *Config) error {
	if cfg.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if cfg.MasterSchema == "" {
		return fmt.Errorf("master_schema_path is required")
	}
	if cfg.Generation.TargetTotal <= 0 {
		return fmt.Errorf("generation.target_total must be positive")
	}
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be positive")
	}
	return nil
}

// ResolveGenerationTarget returns the generation target to run against
// once the seed corpus size is known: an explicit generation_target in
// the config file always wins; otherwise it is target_total minus the
// seed corpus row count, floored at zero.
func (cfg *Config) ResolveGenerationTarget(seedCount int) int {
	if cfg.Generation.GenerationTargetExplicit {
		return cfg.Generation.GenerationTarget
	}
	target := cfg.Generation.TargetTotal - seedCount
	if target < 0 {
		target = 0
	}
	return target
}

// EffectiveAxisCatalog returns cfg's per-axis share overrides merged over
// the built-in defaults: axes present in cfg.AxisShares replace the
// default spec wholesale; axes absent keep the default.
func (cfg *Config) EffectiveAxisCatalog() axis.Catalog {
	catalog := axis.DefaultCatalog()
	for a, shares := range cfg.AxisShares {
		catalog[a] = axis.Spec{Buckets: shares}
	}
	return catalog
}
