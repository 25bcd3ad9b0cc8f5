package util

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/cache"
	"github.com/mpapenbr/racetelemetry/pkg/config"
	"github.com/mpapenbr/racetelemetry/pkg/processing"
	"github.com/mpapenbr/racetelemetry/pkg/source"
	"github.com/mpapenbr/racetelemetry/pkg/source/file"
)

var ErrNoSource = errors.New("no source file given")

type (
	// SourceArgs holds the flags shared by the artifact commands.
	SourceArgs struct {
		Source      string
		SessionPath string
		Output      string
		Pretty      bool
		Watch       bool
	}
	// ComputeFunc computes an artifact from src.
	ComputeFunc func(ctx context.Context, p *processing.Pipeline, src source.SessionSource) (
		any, error)
)

func AddSourceFlags(cmd *cobra.Command, args *SourceArgs) {
	cmd.Flags().StringVar(&args.Source, "source", "",
		"recorded session file (.json, .json.gz, .json.zst)")
	cmd.Flags().StringVar(&args.SessionPath, "session-path", "$",
		"JSON path of the session within the source file")
	cmd.Flags().StringVarP(&args.Output, "output", "o", "",
		"write the artifact to this file (default stdout)")
	cmd.Flags().BoolVar(&args.Pretty, "pretty", false,
		"indent the JSON output")
	cmd.Flags().BoolVar(&args.Watch, "watch", false,
		"recompute whenever the source file changes")
	cmd.Flags().IntVar(&config.FPS, "fps", config.DefaultFPS,
		"ticks per second of the output timeline")
	cmd.Flags().BoolVar(&config.RefreshData, "refresh-data", false,
		"ignore cached artifacts and recompute")
}

// RunCompute is the common flow of the artifact commands: set up logging,
// telemetry and the cache store, compute and write the artifact.
func RunCompute(args *SourceArgs, compute ComputeFunc) error {
	if args.Source == "" {
		return ErrNoSource
	}
	if err := SetupLogger(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if telemetry := SetupTelemetry(ctx); telemetry != nil {
		defer telemetry.Shutdown()
	}
	store, closeStore, err := NewStore()
	if err != nil {
		return err
	}
	defer closeStore()

	run := func(cfg config.Pipeline) error {
		src, err := file.Load(args.Source, file.WithSessionPath(args.SessionPath))
		if err != nil {
			return err
		}
		p := newPipeline(cfg, store)
		ret, err := compute(ctx, p, src)
		if err != nil {
			return err
		}
		return writeOutput(args, ret)
	}
	cfg := config.PipelineFromFlags()
	if err := run(cfg); err != nil {
		return err
	}
	if !args.Watch {
		return nil
	}
	// changed source data must not be served from cache
	cfg.Refresh = true
	return WatchFile(ctx, args.Source, func() {
		if err := run(cfg); err != nil {
			log.Error("could not recompute artifact", log.ErrorField(err))
		}
	})
}

func newPipeline(cfg config.Pipeline, store cache.Store) *processing.Pipeline {
	return processing.NewPipeline(
		processing.WithConfig(cfg),
		processing.WithStore(store),
	)
}

func writeOutput(args *SourceArgs, v any) error {
	var w io.Writer = os.Stdout
	if args.Output != "" {
		f, err := os.Create(args.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := WriteJSON(w, v, args.Pretty); err != nil {
		return err
	}
	if args.Output != "" {
		log.Info("artifact written", log.String("file", args.Output))
	}
	return nil
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WatchFile calls onChange whenever file is written until ctx is done.
// The parent directory is watched since editors often replace files.
func WatchFile(ctx context.Context, file string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return err
	}
	target := filepath.Clean(file)
	log.Info("watching source file", log.String("file", file))
	for {
		select {
		case <-ctx.Done():
			log.Info("context done, stopping watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", log.ErrorField(err))
		}
	}
}
