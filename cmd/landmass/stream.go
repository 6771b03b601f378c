package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"landmass/internal/dispatch"
	"landmass/internal/profiling"
	"landmass/internal/scene"
	"landmass/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
)

type streamFlags struct {
	config   string
	ticks    int
	step     float64
	heading  float64 // degrees, 0 is +x
	interval time.Duration
	settle   bool
}

func parseStreamFlags(args []string) (streamFlags, error) {
	var f streamFlags
	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	cfg := configFlag(fs)
	fs.IntVar(&f.ticks, "ticks", 60, "number of viewer updates")
	fs.Float64Var(&f.step, "step", 20, "distance the viewer moves per tick")
	fs.Float64Var(&f.heading, "heading", 0, "walk direction in degrees, 0 is +x")
	fs.DurationVar(&f.interval, "interval", 0, "wall time between ticks")
	fs.BoolVar(&f.settle, "settle", false, "wait for all generation to finish after every tick")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	f.config = *cfg
	if f.ticks < 0 {
		return f, fmt.Errorf("-ticks cannot be negative")
	}
	return f, nil
}

func runStream(ctx context.Context, args []string, log *slog.Logger) error {
	f, err := parseStreamFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, f.config, log)
	if err != nil {
		return err
	}
	opts, err := cfg.StreamerOptions()
	if err != nil {
		return err
	}

	d := dispatch.New(cfg.DispatchConfig(), log)
	closer.Bind(d.Close)
	defer d.Close()

	sc := scene.New(log)
	streamer, err := world.NewChunkStreamer(opts, d, sc, log)
	if err != nil {
		return err
	}
	log.Info("streaming",
		"chunkSize", streamer.ChunkSize(),
		"chunksInView", streamer.ChunksVisibleInViewDistance(),
		"verticesPerLine", cfg.VerticesPerLine(),
		"ticks", f.ticks,
	)

	dir := mgl32.Rotate2D(mgl32.DegToRad(float32(f.heading))).Mul2x1(mgl32.Vec2{1, 0})
	viewer := mgl32.Vec2{}
	streamer.Start(viewer)

	for i := range f.ticks {
		if err := ctx.Err(); err != nil {
			return err
		}
		viewer = viewer.Add(dir.Mul(float32(f.step)))
		streamer.Tick(viewer)
		if f.settle {
			d.Flush()
		}
		if f.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.interval):
			}
		}
		if (i+1)%10 == 0 {
			st := streamer.Stats()
			log.Info("tick", "n", i+1, "viewer", viewer, "chunks", st.Chunks, "visible", st.Visible, "inFlight", st.InFlight)
		}
	}

	d.Flush()
	// apply the visibility the last results allow
	streamer.Tick(viewer)

	st := streamer.Stats()
	sum := sc.Summary()
	log.Info("stream finished",
		"chunks", st.Chunks,
		"visible", sum.Visible,
		"triangles", sum.Triangles,
		"colliders", sum.Colliders,
		"lods", sum.LODCounts,
		"meshRequests", st.MeshRequests,
		"recomputes", st.Recomputes,
		"panics", d.Panics(),
	)
	log.Info("profile", "top", profiling.TopN(5))
	return nil
}
