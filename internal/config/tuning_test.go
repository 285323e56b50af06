package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/myrmidon/internal/chrono"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.Workers == nil || *cfg.Workers != 4 {
		t.Errorf("Expected Workers 4, got %v", cfg.Workers)
	}
	if cfg.ReportBin == nil || *cfg.ReportBin != "1m" {
		t.Errorf("Expected ReportBin '1m', got %v", cfg.ReportBin)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}

	if cfg.GetInFlightFrames() != 64 {
		t.Errorf("GetInFlightFrames() = %d, want 64", cfg.GetInFlightFrames())
	}
	if cfg.GetMonoclockBase() != 1 {
		t.Errorf("GetMonoclockBase() = %d, want 1", cfg.GetMonoclockBase())
	}
	if cfg.GetReportBin() != chrono.Minute {
		t.Errorf("GetReportBin() = %s, want 1m0s", cfg.GetReportBin())
	}
	if cfg.GetInteractionMaxGap() != chrono.Second {
		t.Errorf("GetInteractionMaxGap() = %s, want 1s", cfg.GetInteractionMaxGap())
	}
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	def := DefaultTuningConfig()

	if cfg.GetWorkers() != *def.Workers {
		t.Errorf("GetWorkers() = %d, want %d", cfg.GetWorkers(), *def.Workers)
	}
	if cfg.GetBroadphaseMargin() != *def.BroadphaseMargin {
		t.Errorf("GetBroadphaseMargin() = %f, want %f", cfg.GetBroadphaseMargin(), *def.BroadphaseMargin)
	}
	if cfg.GetFrameMatchingMaxBytes() != *def.FrameMatchingMaxBytes {
		t.Errorf("GetFrameMatchingMaxBytes() = %d, want %d", cfg.GetFrameMatchingMaxBytes(), *def.FrameMatchingMaxBytes)
	}
	if cfg.GetDBPath() != *def.DBPath {
		t.Errorf("GetDBPath() = %q, want %q", cfg.GetDBPath(), *def.DBPath)
	}
	if cfg.GetInteractionMaxGap() != def.GetInteractionMaxGap() {
		t.Errorf("GetInteractionMaxGap() = %s, want %s", cfg.GetInteractionMaxGap(), def.GetInteractionMaxGap())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "test_config.json", `{
  "workers": 8,
  "broadphase_margin": 2.5,
  "report_bin": "30s",
  "interaction_max_gap": "250ms",
  "db_path": "/tmp/colony.db"
}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetWorkers() != 8 {
		t.Errorf("GetWorkers() = %d, want 8", cfg.GetWorkers())
	}
	if cfg.GetBroadphaseMargin() != 2.5 {
		t.Errorf("GetBroadphaseMargin() = %f, want 2.5", cfg.GetBroadphaseMargin())
	}
	if cfg.GetReportBin() != 30*chrono.Second {
		t.Errorf("GetReportBin() = %s, want 30s", cfg.GetReportBin())
	}
	if cfg.GetInteractionMaxGap() != 250*chrono.Millisecond {
		t.Errorf("GetInteractionMaxGap() = %s, want 250ms", cfg.GetInteractionMaxGap())
	}
	if cfg.GetDBPath() != "/tmp/colony.db" {
		t.Errorf("GetDBPath() = %q", cfg.GetDBPath())
	}
	// unset in the file
	if cfg.InFlightFrames != nil {
		t.Errorf("Expected InFlightFrames nil, got %v", *cfg.InFlightFrames)
	}
	if cfg.GetInFlightFrames() != DefaultInFlightFrames {
		t.Errorf("GetInFlightFrames() = %d, want default", cfg.GetInFlightFrames())
	}
}

func TestLoadTuningConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "config.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"workers":`, "failed to parse"},
		{"zero workers", "w.json", `{"workers": 0}`, "workers must be at least 1"},
		{"negative in flight", "f.json", `{"in_flight_frames": -1}`, "in_flight_frames"},
		{"negative margin", "m.json", `{"broadphase_margin": -0.5}`, "broadphase_margin"},
		{"system monoclock", "c.json", `{"monoclock_base": 0}`, "monoclock_base"},
		{"bad bin", "b.json", `{"report_bin": "soon"}`, "invalid report_bin"},
		{"negative bin", "n.json", `{"report_bin": "-1m"}`, "report_bin must be positive"},
		{"bad max gap", "g.json", `{"interaction_max_gap": "later"}`, "invalid interaction_max_gap"},
		{"zero max gap", "o.json", `{"interaction_max_gap": "0s"}`, "interaction_max_gap must be positive"},
		{"zero matching size", "z.json", `{"frame_matching_max_bytes": 0}`, "frame_matching_max_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadTuningConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("too large", func(t *testing.T) {
		path := writeConfig(t, "large.json", `{"db_path": "`+strings.Repeat("a", 1024*1024)+`"}`)
		_, err := LoadTuningConfig(path)
		if err == nil || !strings.Contains(err.Error(), "too large") {
			t.Errorf("expected size error, got %v", err)
		}
	})
}

func TestMustLoadDefaultConfigMatchesDefaults(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultTuningConfig()

	if cfg.GetWorkers() != def.GetWorkers() ||
		cfg.GetInFlightFrames() != def.GetInFlightFrames() ||
		cfg.GetBroadphaseMargin() != def.GetBroadphaseMargin() ||
		cfg.GetMonoclockBase() != def.GetMonoclockBase() ||
		cfg.GetFrameMatchingMaxBytes() != def.GetFrameMatchingMaxBytes() ||
		cfg.GetReportBin() != def.GetReportBin() ||
		cfg.GetInteractionMaxGap() != def.GetInteractionMaxGap() ||
		cfg.GetDBPath() != def.GetDBPath() {
		t.Errorf("%s disagrees with DefaultTuningConfig()", DefaultConfigPath)
	}
}
