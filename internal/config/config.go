package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"landmass/internal/curve"
	"landmass/internal/dispatch"
	"landmass/internal/meshing"
	"landmass/internal/noise"
	"landmass/internal/preview"
	"landmass/internal/world"

	"github.com/go-gl/mathgl/mgl64"
	getter "github.com/hashicorp/go-getter"
	"gopkg.in/yaml.v3"
)

// Interior sizes used when terrain.chunkSize is left at zero. (S+1) is
// divisible by every stride up to LOD 6 for smooth chunks and LOD 4 for flat ones.
const (
	DefaultChunkSize     = 239
	DefaultFlatChunkSize = 95
)

// Config is the full set of tunables for generating and streaming terrain.
type Config struct {
	Noise     NoiseConfig     `yaml:"noise" json:"noise"`
	Terrain   TerrainConfig   `yaml:"terrain" json:"terrain"`
	Streaming StreamingConfig `yaml:"streaming" json:"streaming"`
	Regions   []RegionConfig  `yaml:"regions" json:"regions"`
}

type NoiseConfig struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Scale       float64 `yaml:"scale" json:"scale"` // <= 0 is clamped to a tiny positive value
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	OffsetX     float64 `yaml:"offsetX" json:"offsetX"`
	OffsetY     float64 `yaml:"offsetY" json:"offsetY"`
	Normalize   string  `yaml:"normalize" json:"normalize"` // "local" or "global"
	Source      string  `yaml:"source" json:"source"`       // "perlin", "simplex" or "value"
}

type TerrainConfig struct {
	ChunkSize        int              `yaml:"chunkSize" json:"chunkSize"` // interior samples per side; 0 picks a default
	HeightMultiplier float32          `yaml:"heightMultiplier" json:"heightMultiplier"`
	HeightCurve      []curve.Keyframe `yaml:"heightCurve" json:"heightCurve"` // empty means identity
	UseFlatShading   bool             `yaml:"useFlatShading" json:"useFlatShading"`
	UseFalloff       bool             `yaml:"useFalloff" json:"useFalloff"`
	UniformScale     float32          `yaml:"uniformScale" json:"uniformScale"`
}

type StreamingConfig struct {
	LODs          []world.LODLevel `yaml:"lods" json:"lods"`
	MoveThreshold float32          `yaml:"moveThreshold" json:"moveThreshold"`
	UpdatePolicy  string           `yaml:"updatePolicy" json:"updatePolicy"`
	Workers       int              `yaml:"workers" json:"workers"` // 0 means one per CPU
}

type RegionConfig struct {
	Name   string  `yaml:"name" json:"name"`
	Height float32 `yaml:"height" json:"height"`
	Colour string  `yaml:"colour" json:"colour"` // "#rrggbb"
}

// Default returns a configuration that validates as-is.
func Default() *Config {
	regions := preview.DefaultRegions()
	rc := make([]RegionConfig, len(regions))
	for i, r := range regions {
		rc[i] = RegionConfig{
			Name:   r.Name,
			Height: r.Height,
			Colour: fmt.Sprintf("#%02x%02x%02x", r.Colour.R, r.Colour.G, r.Colour.B),
		}
	}

	return &Config{
		Noise: NoiseConfig{
			Seed:        1,
			Scale:       50,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2,
			Normalize:   noise.Global.String(),
			Source:      string(noise.SourcePerlin),
		},
		Terrain: TerrainConfig{
			ChunkSize:        DefaultChunkSize,
			HeightMultiplier: 40,
			HeightCurve:      curve.Terrain().Keys(),
			UseFalloff:       false,
			UniformScale:     1,
		},
		Streaming: StreamingConfig{
			LODs: []world.LODLevel{
				{LOD: 0, VisibleDistance: 300, UseForCollision: true},
				{LOD: 1, VisibleDistance: 400},
				{LOD: 2, VisibleDistance: 600},
			},
			MoveThreshold: world.DefaultMoveThreshold,
			UpdatePolicy:  string(world.UpdateOnThreshold),
		},
		Regions: rc,
	}
}

// Load reads a YAML (.yaml, .yml) or JSON (.json) file over the defaults. An
// empty path returns defaults.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(filepath.Ext(file), data); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".json":
		return json.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}
}

// Fetch downloads src into dir with go-getter and loads it. src may be a local
// path or any go-getter source such as https://, git:: or s3::.
func Fetch(ctx context.Context, src, dir string) (*Config, error) {
	dst := filepath.Join(dir, "landmass"+sourceExt(src))
	if err := getter.GetFile(dst, src, getter.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("fetch config %s: %w", src, err)
	}
	return Load(dst)
}

// sourceExt finds the file extension of a go-getter source, ignoring forced
// getters, query strings and subdirectory suffixes. Unknown means YAML.
func sourceExt(src string) string {
	if i := strings.Index(src, "::"); i >= 0 {
		src = src[i+2:]
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndex(src, "//"); i > strings.Index(src, "://")+2 {
		src = src[i+2:]
	}
	switch ext := strings.ToLower(path.Ext(src)); ext {
	case ".json", ".yml", ".yaml":
		return ext
	default:
		return ".yaml"
	}
}

// EffectiveChunkSize resolves a zero chunk size to the shading default.
func (c *Config) EffectiveChunkSize() int {
	if c.Terrain.ChunkSize != 0 {
		return c.Terrain.ChunkSize
	}
	if c.Terrain.UseFlatShading {
		return DefaultFlatChunkSize
	}
	return DefaultChunkSize
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Noise.Octaves < 0 {
		return errors.New("noise.octaves cannot be negative")
	}
	if c.Noise.Persistence < 0 {
		return errors.New("noise.persistence cannot be negative")
	}
	if c.Noise.Lacunarity < 1 {
		return errors.New("noise.lacunarity must be >= 1")
	}
	if _, err := noise.ParseNormalizeMode(c.Noise.Normalize); err != nil {
		return fmt.Errorf("noise.normalize: %w", err)
	}
	if _, err := noise.ParseSourceKind(c.Noise.Source); err != nil {
		return fmt.Errorf("noise.source: %w", err)
	}

	size := c.EffectiveChunkSize()
	if size < 2 {
		return errors.New("terrain.chunkSize must be at least 2")
	}
	if len(c.Terrain.HeightCurve) > 0 {
		if _, err := curve.New(c.Terrain.HeightCurve...); err != nil {
			return fmt.Errorf("terrain.heightCurve: %w", err)
		}
	}
	if c.Terrain.UniformScale <= 0 {
		return errors.New("terrain.uniformScale must be positive")
	}

	if err := world.ValidateLODs(c.Streaming.LODs, size+2); err != nil {
		return fmt.Errorf("streaming.%w", err)
	}
	if c.Streaming.MoveThreshold < 0 {
		return errors.New("streaming.moveThreshold cannot be negative")
	}
	if _, err := world.ParseUpdatePolicy(c.Streaming.UpdatePolicy); err != nil {
		return fmt.Errorf("streaming.updatePolicy: %w", err)
	}
	if c.Streaming.Workers < 0 {
		return errors.New("streaming.workers cannot be negative")
	}

	for i, r := range c.Regions {
		if r.Name == "" {
			return fmt.Errorf("regions[%d].name must be set", i)
		}
		if _, err := preview.ParseHexColour(r.Colour); err != nil {
			return fmt.Errorf("regions[%d].colour: %w", i, err)
		}
		if i > 0 && r.Height < c.Regions[i-1].Height {
			return fmt.Errorf("regions[%d].height must be >= regions[%d]", i, i-1)
		}
	}
	return nil
}

// NoiseParams converts the noise section.
func (c *Config) NoiseParams() (noise.Params, error) {
	mode, err := noise.ParseNormalizeMode(c.Noise.Normalize)
	if err != nil {
		return noise.Params{}, err
	}
	source, err := noise.ParseSourceKind(c.Noise.Source)
	if err != nil {
		return noise.Params{}, err
	}
	return noise.Params{
		Seed:        c.Noise.Seed,
		Scale:       c.Noise.Scale,
		Octaves:     c.Noise.Octaves,
		Persistence: c.Noise.Persistence,
		Lacunarity:  c.Noise.Lacunarity,
		Offset:      mgl64.Vec2{c.Noise.OffsetX, c.Noise.OffsetY},
		Normalize:   mode,
		Source:      source,
	}, nil
}

// HeightCurve builds the height remap.
func (c *Config) HeightCurve() (curve.Curve, error) {
	if len(c.Terrain.HeightCurve) == 0 {
		return curve.Linear{}, nil
	}
	return curve.New(c.Terrain.HeightCurve...)
}

// StreamerOptions assembles everything the chunk streamer needs.
func (c *Config) StreamerOptions() (world.StreamerOptions, error) {
	params, err := c.NoiseParams()
	if err != nil {
		return world.StreamerOptions{}, err
	}
	hc, err := c.HeightCurve()
	if err != nil {
		return world.StreamerOptions{}, err
	}
	policy, err := world.ParseUpdatePolicy(c.Streaming.UpdatePolicy)
	if err != nil {
		return world.StreamerOptions{}, err
	}
	return world.StreamerOptions{
		Noise:            params,
		InteriorSize:     c.EffectiveChunkSize(),
		UseFalloff:       c.Terrain.UseFalloff,
		HeightMultiplier: c.Terrain.HeightMultiplier,
		HeightCurve:      hc,
		FlatShading:      c.Terrain.UseFlatShading,
		LODs:             append([]world.LODLevel(nil), c.Streaming.LODs...),
		UniformScale:     c.Terrain.UniformScale,
		MoveThreshold:    c.Streaming.MoveThreshold,
		Policy:           policy,
	}, nil
}

// DispatchConfig sizes the worker pool.
func (c *Config) DispatchConfig() dispatch.Config {
	return dispatch.Config{Workers: c.Streaming.Workers}
}

// PreviewRegions converts the region table; colours were checked by Validate.
func (c *Config) PreviewRegions() ([]preview.Region, error) {
	out := make([]preview.Region, len(c.Regions))
	for i, r := range c.Regions {
		col, err := preview.ParseHexColour(r.Colour)
		if err != nil {
			return nil, fmt.Errorf("regions[%d].colour: %w", i, err)
		}
		out[i] = preview.Region{Name: r.Name, Height: r.Height, Colour: col}
	}
	return out, nil
}

// VerticesPerLine reports the mesh resolution of each LOD in the table.
func (c *Config) VerticesPerLine() []int {
	bordered := c.EffectiveChunkSize() + 2
	out := make([]int, len(c.Streaming.LODs))
	for i, l := range c.Streaming.LODs {
		out[i] = meshing.VerticesPerLine(bordered, l.LOD)
	}
	return out
}
