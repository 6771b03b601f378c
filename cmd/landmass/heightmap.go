package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"landmass/internal/heightfield"
	"landmass/internal/preview"
	"landmass/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

type heightmapFlags struct {
	config  string
	chunkX  int
	chunkY  int
	out     string
	upscale int
	legend  bool
}

func parseHeightmapFlags(args []string) (heightmapFlags, error) {
	var f heightmapFlags
	fs := flag.NewFlagSet("heightmap", flag.ContinueOnError)
	cfg := configFlag(fs)
	fs.IntVar(&f.chunkX, "x", 0, "chunk x coordinate")
	fs.IntVar(&f.chunkY, "y", 0, "chunk y coordinate")
	fs.StringVar(&f.out, "out", ".", "output directory")
	fs.IntVar(&f.upscale, "upscale", 2, "colour map magnification")
	fs.BoolVar(&f.legend, "legend", true, "draw a region legend next to the colour map")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	f.config = *cfg
	if f.upscale < 1 {
		return f, fmt.Errorf("-upscale must be at least 1")
	}
	return f, nil
}

func runHeightmap(ctx context.Context, args []string, log *slog.Logger) error {
	f, err := parseHeightmapFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, f.config, log)
	if err != nil {
		return err
	}
	params, err := cfg.NoiseParams()
	if err != nil {
		return err
	}
	regions, err := cfg.PreviewRegions()
	if err != nil {
		return err
	}

	size := cfg.EffectiveChunkSize()
	b, err := heightfield.NewBuilder(heightfield.BuilderConfig{
		Params:       params,
		InteriorSize: size,
		UseFalloff:   cfg.Terrain.UseFalloff,
	})
	if err != nil {
		return err
	}

	chunkSize := float32(size - 1)
	centre := mgl32.Vec2{float32(f.chunkX) * chunkSize, float32(f.chunkY) * chunkSize}
	hf := b.Build(centre)
	log.Info("height field built", "chunk", fmt.Sprintf("%d,%d", f.chunkX, f.chunkY), "size", hf.Size())

	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("chunk_%d_%d", f.chunkX, f.chunkY)

	if err := writeTIFF(filepath.Join(f.out, name+"_height.tif"), preview.HeightImage(hf)); err != nil {
		return err
	}

	var colour image.Image = preview.Upscale(preview.ColourMap(hf, regions), f.upscale)
	if f.legend {
		face, err := preview.NewLegendFace(12)
		if err != nil {
			return err
		}
		defer face.Close()
		colour = preview.WithLegend(colour, regions, face)
	}
	if err := writeTIFF(filepath.Join(f.out, name+"_colour.tif"), colour); err != nil {
		return err
	}

	log.Info("previews written", "dir", f.out, "profile", profiling.TopN(3))
	return nil
}

func writeTIFF(file string, img image.Image) error {
	out, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	if err := preview.EncodeTIFF(out, img); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", file, err)
	}
	return out.Close()
}
