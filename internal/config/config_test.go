package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"landmass/internal/curve"
	"landmass/internal/noise"
	"landmass/internal/world"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative octaves",
			mutate:  func(cfg *Config) { cfg.Noise.Octaves = -1 },
			wantErr: "noise.octaves cannot be negative",
		},
		{
			name:    "lacunarity below one",
			mutate:  func(cfg *Config) { cfg.Noise.Lacunarity = 0.5 },
			wantErr: "noise.lacunarity must be >= 1",
		},
		{
			name:    "unknown normalize mode",
			mutate:  func(cfg *Config) { cfg.Noise.Normalize = "sideways" },
			wantErr: "noise.normalize",
		},
		{
			name:    "unknown noise source",
			mutate:  func(cfg *Config) { cfg.Noise.Source = "worley" },
			wantErr: "noise.source",
		},
		{
			name:    "chunk size too small",
			mutate:  func(cfg *Config) { cfg.Terrain.ChunkSize = 1 },
			wantErr: "terrain.chunkSize must be at least 2",
		},
		{
			name: "duplicate curve keys",
			mutate: func(cfg *Config) {
				cfg.Terrain.HeightCurve = []curve.Keyframe{{Time: 0.5}, {Time: 0.5}}
			},
			wantErr: "terrain.heightCurve",
		},
		{
			name:    "zero uniform scale",
			mutate:  func(cfg *Config) { cfg.Terrain.UniformScale = 0 },
			wantErr: "terrain.uniformScale must be positive",
		},
		{
			name:    "empty lod table",
			mutate:  func(cfg *Config) { cfg.Streaming.LODs = nil },
			wantErr: "streaming.lods",
		},
		{
			name: "non increasing thresholds",
			mutate: func(cfg *Config) {
				cfg.Streaming.LODs[1].VisibleDistance = 300
			},
			wantErr: "streaming.lods[1].visibleDistance must be greater than lods[0]",
		},
		{
			name: "stride does not divide chunk",
			mutate: func(cfg *Config) {
				cfg.Streaming.LODs[2].LOD = 7
			},
			wantErr: "streaming.lods[2].lod",
		},
		{
			name: "two collision levels",
			mutate: func(cfg *Config) {
				cfg.Streaming.LODs[1].UseForCollision = true
			},
			wantErr: "streaming.lods[1].useForCollision",
		},
		{
			name:    "negative move threshold",
			mutate:  func(cfg *Config) { cfg.Streaming.MoveThreshold = -1 },
			wantErr: "streaming.moveThreshold cannot be negative",
		},
		{
			name:    "unknown update policy",
			mutate:  func(cfg *Config) { cfg.Streaming.UpdatePolicy = "sometimes" },
			wantErr: "streaming.updatePolicy",
		},
		{
			name:    "negative workers",
			mutate:  func(cfg *Config) { cfg.Streaming.Workers = -2 },
			wantErr: "streaming.workers cannot be negative",
		},
		{
			name:    "missing region name",
			mutate:  func(cfg *Config) { cfg.Regions[0].Name = "" },
			wantErr: "regions[0].name must be set",
		},
		{
			name:    "bad region colour",
			mutate:  func(cfg *Config) { cfg.Regions[2].Colour = "sandy" },
			wantErr: "regions[2].colour",
		},
		{
			name:    "region heights out of order",
			mutate:  func(cfg *Config) { cfg.Regions[3].Height = 0.1 },
			wantErr: "regions[3].height must be >= regions[2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveChunkSize(t *testing.T) {
	cfg := Default()
	cfg.Terrain.ChunkSize = 0
	if got := cfg.EffectiveChunkSize(); got != DefaultChunkSize {
		t.Fatalf("smooth default = %d, want %d", got, DefaultChunkSize)
	}
	cfg.Terrain.UseFlatShading = true
	if got := cfg.EffectiveChunkSize(); got != DefaultFlatChunkSize {
		t.Fatalf("flat default = %d, want %d", got, DefaultFlatChunkSize)
	}
	cfg.Terrain.ChunkSize = 47
	if got := cfg.EffectiveChunkSize(); got != 47 {
		t.Fatalf("explicit size = %d, want 47", got)
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "terrain.yaml")
	data := `
noise:
  seed: 99
  normalize: local
  source: simplex
terrain:
  chunkSize: 95
  useFalloff: true
streaming:
  lods:
    - {lod: 0, visibleDistance: 100, useForCollision: true}
    - {lod: 2, visibleDistance: 250}
  updatePolicy: always
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Noise.Seed != 99 || cfg.Noise.Octaves != 4 {
		t.Fatalf("noise = %+v, want seed 99 with default octaves", cfg.Noise)
	}
	if len(cfg.Streaming.LODs) != 2 || cfg.Streaming.LODs[1].LOD != 2 {
		t.Fatalf("lods = %+v", cfg.Streaming.LODs)
	}

	opts, err := cfg.StreamerOptions()
	if err != nil {
		t.Fatalf("StreamerOptions: %v", err)
	}
	if opts.InteriorSize != 95 || !opts.UseFalloff || opts.Policy != world.UpdateAlways {
		t.Fatalf("options = %+v", opts)
	}
	if opts.Noise.Normalize != noise.Local || opts.Noise.Source != noise.SourceSimplex {
		t.Fatalf("noise params = %+v", opts.Noise)
	}
	if got := cfg.VerticesPerLine(); len(got) != 2 || got[0] != 95 || got[1] != 23 {
		t.Fatalf("VerticesPerLine() = %v, want [95 23]", got)
	}
}

func TestLoadJSONAndErrors(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "terrain.json")
	if err := os.WriteFile(good, []byte(`{"noise":{"seed":7,"octaves":2}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(good)
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	if cfg.Noise.Seed != 7 || cfg.Noise.Octaves != 2 {
		t.Fatalf("noise = %+v", cfg.Noise)
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"noise":{"lacunarity":0.1}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(invalid); err == nil || !strings.Contains(err.Error(), "validate config") {
		t.Fatalf("Load invalid = %v, want validation error", err)
	}

	unknown := filepath.Join(dir, "terrain.toml")
	if err := os.WriteFile(unknown, []byte(`seed = 1`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(unknown); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	cfg, err = Load("")
	if err != nil || cfg.Noise.Seed != 1 {
		t.Fatalf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestFetchLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "remote.yml")
	if err := os.WriteFile(src, []byte("noise:\n  seed: 1234\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Fetch(context.Background(), src, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if cfg.Noise.Seed != 1234 {
		t.Fatalf("seed = %d, want 1234", cfg.Noise.Seed)
	}
}

func TestSourceExt(t *testing.T) {
	cases := map[string]string{
		"/tmp/terrain.json":                             ".json",
		"https://example.com/cfg/terrain.yml?ref=main":  ".yml",
		"s3::https://s3.amazonaws.com/bucket/t.json":    ".json",
		"git::https://example.com/repo.git//cfg/a.yaml": ".yaml",
		"https://example.com/latest":                    ".yaml",
	}
	for src, want := range cases {
		if got := sourceExt(src); got != want {
			t.Errorf("sourceExt(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestPreviewRegions(t *testing.T) {
	cfg := Default()
	regions, err := cfg.PreviewRegions()
	if err != nil {
		t.Fatalf("PreviewRegions: %v", err)
	}
	if len(regions) != len(cfg.Regions) {
		t.Fatalf("got %d regions, want %d", len(regions), len(cfg.Regions))
	}
	if regions[0].Colour.B != 0xc3 || regions[0].Colour.A != 0xff {
		t.Fatalf("first region colour = %v", regions[0].Colour)
	}
}

func TestHeightCurveEmptyIsIdentity(t *testing.T) {
	cfg := Default()
	cfg.Terrain.HeightCurve = nil
	c, err := cfg.HeightCurve()
	if err != nil {
		t.Fatalf("HeightCurve: %v", err)
	}
	if got := c.Evaluate(0.37); got != 0.37 {
		t.Fatalf("Evaluate(0.37) = %v, want identity", got)
	}
}
