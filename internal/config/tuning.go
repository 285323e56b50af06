package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/myrmidon/internal/chrono"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultWorkers               = 4
	DefaultInFlightFrames        = 64
	DefaultBroadphaseMargin      = 0.0
	DefaultMonoclockBase         = 1
	DefaultFrameMatchingMaxBytes = 64 * 1024 * 1024
	DefaultReportBin             = "1m"
	DefaultInteractionMaxGap     = "1s"
	DefaultDBPath                = "myrmidon.db"
)

// TuningConfig holds the processing parameters. Every field is optional;
// partial files are valid and unset fields fall back to the defaults.
type TuningConfig struct {
	// Pipeline
	Workers        *int `json:"workers,omitempty"`
	InFlightFrames *int `json:"in_flight_frames,omitempty"`

	// Collision broadphase AABB inflation, in pixels
	BroadphaseMargin *float64 `json:"broadphase_margin,omitempty"`

	// First MonoclockID handed to tracking data directories
	MonoclockBase *uint32 `json:"monoclock_base,omitempty"`

	FrameMatchingMaxBytes *int64 `json:"frame_matching_max_bytes,omitempty"`

	// Reporting
	ReportBin *string `json:"report_bin,omitempty"` // duration string like "30s"

	// Longest time an ant or interaction may go unseen before its
	// segment is closed
	InteractionMaxGap *string `json:"interaction_max_gap,omitempty"`

	DBPath *string `json:"db_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrUint32(v uint32) *uint32    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		Workers:               ptrInt(DefaultWorkers),
		InFlightFrames:        ptrInt(DefaultInFlightFrames),
		BroadphaseMargin:      ptrFloat64(DefaultBroadphaseMargin),
		MonoclockBase:         ptrUint32(DefaultMonoclockBase),
		FrameMatchingMaxBytes: ptrInt64(DefaultFrameMatchingMaxBytes),
		ReportBin:             ptrString(DefaultReportBin),
		InteractionMaxGap:     ptrString(DefaultInteractionMaxGap),
		DBPath:                ptrString(DefaultDBPath),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
// Fields omitted from the JSON file keep their defaults, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository
// root. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.InFlightFrames != nil && *c.InFlightFrames < 1 {
		return fmt.Errorf("in_flight_frames must be at least 1, got %d", *c.InFlightFrames)
	}
	if c.BroadphaseMargin != nil && *c.BroadphaseMargin < 0 {
		return fmt.Errorf("broadphase_margin must be non-negative, got %f", *c.BroadphaseMargin)
	}
	if c.MonoclockBase != nil && *c.MonoclockBase == 0 {
		return fmt.Errorf("monoclock_base must not be 0, reserved for the system clock")
	}
	if c.FrameMatchingMaxBytes != nil && *c.FrameMatchingMaxBytes <= 0 {
		return fmt.Errorf("frame_matching_max_bytes must be positive, got %d", *c.FrameMatchingMaxBytes)
	}
	if c.ReportBin != nil && *c.ReportBin != "" {
		d, err := chrono.ParseDuration(*c.ReportBin)
		if err != nil {
			return fmt.Errorf("invalid report_bin '%s': %w", *c.ReportBin, err)
		}
		if d <= 0 {
			return fmt.Errorf("report_bin must be positive, got %s", d)
		}
	}
	if c.InteractionMaxGap != nil && *c.InteractionMaxGap != "" {
		d, err := chrono.ParseDuration(*c.InteractionMaxGap)
		if err != nil {
			return fmt.Errorf("invalid interaction_max_gap '%s': %w", *c.InteractionMaxGap, err)
		}
		if d <= 0 {
			return fmt.Errorf("interaction_max_gap must be positive, got %s", d)
		}
	}
	return nil
}

// GetWorkers returns the workers value or the default.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetInFlightFrames returns the in_flight_frames value or the default.
func (c *TuningConfig) GetInFlightFrames() int {
	if c.InFlightFrames == nil {
		return DefaultInFlightFrames
	}
	return *c.InFlightFrames
}

// GetBroadphaseMargin returns the broadphase_margin value or the default.
func (c *TuningConfig) GetBroadphaseMargin() float64 {
	if c.BroadphaseMargin == nil {
		return DefaultBroadphaseMargin
	}
	return *c.BroadphaseMargin
}

// GetMonoclockBase returns the monoclock_base value or the default.
func (c *TuningConfig) GetMonoclockBase() chrono.MonoclockID {
	if c.MonoclockBase == nil {
		return DefaultMonoclockBase
	}
	return chrono.MonoclockID(*c.MonoclockBase)
}

// GetFrameMatchingMaxBytes returns the frame_matching_max_bytes value or
// the default.
func (c *TuningConfig) GetFrameMatchingMaxBytes() int64 {
	if c.FrameMatchingMaxBytes == nil {
		return DefaultFrameMatchingMaxBytes
	}
	return *c.FrameMatchingMaxBytes
}

// GetReportBin parses and returns the ReportBin duration.
func (c *TuningConfig) GetReportBin() chrono.Duration {
	if c.ReportBin == nil || *c.ReportBin == "" {
		return chrono.Minute // default
	}
	d, err := chrono.ParseDuration(*c.ReportBin)
	if err != nil || d <= 0 {
		return chrono.Minute // default on parse error
	}
	return d
}

// GetInteractionMaxGap parses and returns the InteractionMaxGap duration.
func (c *TuningConfig) GetInteractionMaxGap() chrono.Duration {
	if c.InteractionMaxGap == nil || *c.InteractionMaxGap == "" {
		return chrono.Second
	}
	d, err := chrono.ParseDuration(*c.InteractionMaxGap)
	if err != nil || d <= 0 {
		return chrono.Second
	}
	return d
}

// GetDBPath returns the db_path value or the default.
func (c *TuningConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}
