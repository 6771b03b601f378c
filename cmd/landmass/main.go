package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"landmass/internal/config"

	"github.com/google/uuid"
	"github.com/xlab/closer"
)

const usage = `usage: landmass <command> [flags]

commands:
  stream     walk a viewer across the terrain and report what was streamed
  heightmap  render one chunk's height field to TIFF previews
`

func main() {
	defer closer.Close()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		closer.Exit(2)
	}

	log := newLogger(os.Stdout, os.Getenv("LANDMASS_DEBUG") != "").With("run", uuid.NewString())

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "stream":
		err = runStream(ctx, args, log)
	case "heightmap":
		err = runHeightmap(ctx, args, log)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		closer.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		closer.Exit(1)
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// configFlag registers the shared -config flag on fs.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "config file or go-getter source (https://, git::, s3::); empty uses defaults")
}

// loadConfig reads a local file directly and fetches anything that looks
// like a remote source into a scratch directory first.
func loadConfig(ctx context.Context, src string, log *slog.Logger) (*config.Config, error) {
	if !isRemote(src) {
		return config.Load(src)
	}

	dir, err := os.MkdirTemp("", "landmass-config-")
	if err != nil {
		return nil, fmt.Errorf("config scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	log.Info("fetching config", "source", src)
	return config.Fetch(ctx, src, dir)
}

func isRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}
