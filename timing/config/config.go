// Package config holds the engine's runtime-configurable timing and
// geometry knobs as a JSON-backed struct, following the reference engine's
// own TimingConfig/LoadConfig/SaveConfig convention.
package config

import (
	"encoding/json"
	"os"

	"github.com/Farahemad1/tomasulosim/simerr"
	"github.com/Farahemad1/tomasulosim/timing/cache"
)

// Config holds every construction input the engine needs: per-category
// latencies, station/buffer counts, and cache geometry (§6).
type Config struct {
	// Latencies, in cycles.
	IntALULatency   uint64 `json:"int_alu_latency"`
	FPAddLatency    uint64 `json:"fp_add_latency"`
	FPMulLatency    uint64 `json:"fp_mul_latency"`
	FPDivLatency    uint64 `json:"fp_div_latency"`
	LoadBaseLatency uint64 `json:"load_base_latency"`
	StoreBaseLatency uint64 `json:"store_base_latency"`

	// Station/buffer counts.
	IntALUStations int `json:"int_alu_stations"`
	FPAddStations  int `json:"fp_add_stations"`
	FPMulStations  int `json:"fp_mul_stations"`
	LoadBuffers    int `json:"load_buffers"`
	StoreBuffers   int `json:"store_buffers"`

	// Cache geometry and timing.
	Cache cache.Config `json:"cache"`

	// MemorySize is the backing store's size in bytes.
	MemorySize int `json:"memory_size"`
}

// Default returns a reasonably sized default configuration, mirroring the
// reference engine's DefaultTimingConfig constructor.
func Default() Config {
	return Config{
		IntALULatency:    1,
		FPAddLatency:     2,
		FPMulLatency:     10,
		FPDivLatency:     20,
		LoadBaseLatency:  2,
		StoreBaseLatency: 2,

		IntALUStations: 3,
		FPAddStations:  3,
		FPMulStations:  2,
		LoadBuffers:    3,
		StoreBuffers:   3,

		Cache: cache.Config{
			Size:          1024,
			BlockSize:     16,
			Associativity: 2,
			HitLatency:    1,
			MissPenalty:   10,
		},

		MemorySize: 4096,
	}
}

// Validate checks every latency and station/buffer count is positive and
// delegates cache geometry validation to cache.Config.Validate.
func (c Config) Validate() error {
	if c.IntALULatency == 0 || c.FPAddLatency == 0 || c.FPMulLatency == 0 ||
		c.FPDivLatency == 0 || c.LoadBaseLatency == 0 || c.StoreBaseLatency == 0 {
		return simerr.New(simerr.BadConfig, "all latencies must be positive")
	}
	if c.IntALUStations <= 0 || c.FPAddStations <= 0 || c.FPMulStations <= 0 ||
		c.LoadBuffers <= 0 || c.StoreBuffers <= 0 {
		return simerr.New(simerr.BadConfig, "all station/buffer counts must be positive")
	}
	if c.MemorySize <= 0 {
		return simerr.New(simerr.BadConfig, "memory size must be positive")
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return nil
}

// Clone returns an independent copy of c.
func (c Config) Clone() Config { return c }

// Load reads a JSON-encoded Config from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, simerr.Wrap(simerr.BadConfig, "reading config file", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, simerr.Wrap(simerr.BadConfig, "parsing config file", err)
	}
	return cfg, nil
}

// Save writes c as indented JSON to path.
func Save(path string, c Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return simerr.Wrap(simerr.BadConfig, "encoding config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return simerr.Wrap(simerr.BadConfig, "writing config file", err)
	}
	return nil
}
