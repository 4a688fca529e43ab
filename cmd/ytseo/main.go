// Command ytseo is the operator CLI for the metadata workflow.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/app"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Engine is the workflow surface the CLI drives. *workflow.Engine implements it.
type Engine interface {
	SyncChannel(ctx context.Context, handle string, limit int) (*workflow.BatchResult, error)
	FetchAndProcessVideo(ctx context.Context, videoID, lang string) (int, error)
	GenerateSuggestions(ctx context.Context, limit int, lang string, priority models.Priority) (*workflow.BatchResult, error)
	GenerateSuggestionsForVideo(ctx context.Context, videoID, lang string) (int, error)
	ApplySuggestions(ctx context.Context, limit int, dryRun bool) (*workflow.BatchResult, error)
	Video(ctx context.Context, videoID string) (*models.Video, error)
	ListVideos(ctx context.Context, status *models.Status, limit int) ([]*models.Video, error)
	LatestSuggestion(ctx context.Context, videoID, lang string) (*models.Suggestion, error)
	Approve(ctx context.Context, videoID string) error
	Reject(ctx context.Context, videoID string) (int64, error)
	Regenerate(ctx context.Context, videoID, lang string) (*models.Suggestion, error)
	LinkEpisode(ctx context.Context, videoID, episodeID string) error
	Stats(ctx context.Context) (*workflow.Stats, error)
}

// env is what a command runs against. open is called at most once, after
// the command has parsed its flags, so apply can choose its write options.
type env struct {
	cfg      *config.Config
	in       io.Reader
	out      io.Writer
	open     func(opts app.Options) (Engine, enrichment.Lookup, error)
	engine   Engine
	episodes enrichment.Lookup
}

func (e *env) connect(opts app.Options) (Engine, error) {
	if e.engine == nil {
		eng, episodes, err := e.open(opts)
		if err != nil {
			return nil, err
		}
		e.engine, e.episodes = eng, episodes
	}
	return e.engine, nil
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"sync":       {"list recent uploads of a channel into the registry", runSync},
	"fetch":      {"fetch one video by id, register it and generate suggestions", runFetch},
	"generate":   {"generate suggestions for pending videos", runGenerate},
	"apply":      {"write approved suggestions to YouTube (dry run unless -live)", runApply},
	"list":       {"list registry videos", runList},
	"show":       {"show a video and its latest suggestion", runShow},
	"approve":    {"approve suggested videos", runApprove},
	"reject":     {"drop a video's suggestions and reset it to pending", runReject},
	"regenerate": {"reset a video to pending and generate again", runRegenerate},
	"link":       {"link a video to an episode (use - to unlink)", runLink},
	"search":     {"search episodes by title", runSearch},
	"stats":      {"count videos per status", runStats},
	"auth":       {"authorize YouTube writes and store the OAuth token", runAuth},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(errOut)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", args[0])
		usage(errOut)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "ytseo: %v\n", err)
		return 1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(errOut, "ytseo: failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	var built *app.App
	defer func() {
		if built != nil {
			built.Close()
		}
	}()

	e := &env{
		cfg: cfg,
		in:  in,
		out: out,
		open: func(opts app.Options) (Engine, enrichment.Lookup, error) {
			opts.ConfirmIn, opts.ConfirmOut = in, out
			a, err := app.Build(ctx, cfg, opts)
			if err != nil {
				return nil, nil, err
			}
			built = a
			return a.Engine, a.Episodes, nil
		},
	}

	if err := cmd.run(ctx, e, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(errOut, "ytseo %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: ytseo <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
}
