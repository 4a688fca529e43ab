package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/app"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/confirm"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/youtube"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
)

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// videoArgs validates positional video ids.
func videoArgs(fs *flag.FlagSet, min int) ([]string, error) {
	ids := fs.Args()
	if len(ids) < min {
		return nil, fmt.Errorf("expected at least %d video id(s)", min)
	}
	for _, id := range ids {
		if !validation.IsValidVideoID(id) {
			return nil, fmt.Errorf("invalid video id %q", id)
		}
	}
	return ids, nil
}

func languageFlag(fs *flag.FlagSet, def string) *string {
	return fs.String("lang", def, "language code of the suggestion")
}

func checkLanguage(lang string) error {
	if !validation.IsValidLanguageCode(lang) {
		return fmt.Errorf("invalid language code %q", lang)
	}
	return nil
}

func runSync(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("sync", e.out)
	handle := fs.String("handle", e.cfg.YouTube.ChannelHandle, "channel handle or id")
	limit := fs.Int("limit", e.cfg.Workflow.SyncLimit, "maximum number of uploads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	res, err := eng.SyncChannel(ctx, *handle, *limit)
	if res != nil {
		printBatch(e.out, res)
	}
	return err
}

func runFetch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("fetch", e.out)
	lang := languageFlag(fs, e.cfg.Workflow.Language)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := videoArgs(fs, 1)
	if err != nil {
		return err
	}
	if err := checkLanguage(*lang); err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	for _, id := range ids {
		n, err := eng.FetchAndProcessVideo(ctx, id, *lang)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		if n == 0 {
			fmt.Fprintf(e.out, "%s: not found on YouTube\n", id)
			continue
		}
		fmt.Fprintf(e.out, "%s: suggestions generated\n", id)
	}
	return nil
}

func runGenerate(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("generate", e.out)
	limit := fs.Int("limit", e.cfg.Workflow.GenerateLimit, "maximum number of videos")
	lang := languageFlag(fs, e.cfg.Workflow.Language)
	priority := fs.String("priority", e.cfg.Workflow.Priority, "recent, oldest or linked")
	videoID := fs.String("video", "", "generate for this video only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkLanguage(*lang); err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}

	if *videoID != "" {
		if !validation.IsValidVideoID(*videoID) {
			return fmt.Errorf("invalid video id %q", *videoID)
		}
		n, err := eng.GenerateSuggestionsForVideo(ctx, *videoID, *lang)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintf(e.out, "%s: not in the registry, run sync or fetch first\n", *videoID)
			return nil
		}
		fmt.Fprintf(e.out, "%s: suggestions generated\n", *videoID)
		return nil
	}

	res, err := eng.GenerateSuggestions(ctx, *limit, *lang, models.ParsePriority(*priority))
	if res != nil {
		printBatch(e.out, res)
	}
	return err
}

func runApply(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("apply", e.out)
	limit := fs.Int("limit", e.cfg.Workflow.ApplyLimit, "maximum number of videos")
	live := fs.Bool("live", false, "write to YouTube instead of a dry run")
	yes := fs.Bool("yes", false, "skip the per-video APPLY confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := app.Options{Writes: true, LiveWrites: *live}
	if *yes {
		opts.Confirmation = confirm.PolicyAllow
	}

	eng, err := e.connect(opts)
	if err != nil {
		return err
	}

	dryRun := !*live
	if dryRun {
		fmt.Fprintln(e.out, "DRY RUN: no changes will be written. Pass -live to apply.")
	}
	res, err := eng.ApplySuggestions(ctx, *limit, dryRun)
	if res != nil {
		printBatch(e.out, res)
	}
	return err
}

func runList(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("list", e.out)
	statusFlag := fs.String("status", "", "pending, suggested, approved or applied")
	limit := fs.Int("limit", 50, "maximum number of videos")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var status *models.Status
	if *statusFlag != "" {
		s, err := models.ParseStatus(*statusFlag)
		if err != nil {
			return err
		}
		status = &s
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	videos, err := eng.ListVideos(ctx, status, *limit)
	if err != nil {
		return err
	}
	printVideos(e.out, videos)
	return nil
}

func runShow(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("show", e.out)
	lang := fs.String("lang", "", "suggestion language (default: newest of any language)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := videoArgs(fs, 1)
	if err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	v, err := eng.Video(ctx, ids[0])
	if err != nil {
		return err
	}
	s, err := eng.LatestSuggestion(ctx, ids[0], *lang)
	if err != nil {
		return err
	}
	printVideo(e.out, v, s)
	return nil
}

func runApprove(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("approve", e.out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := videoArgs(fs, 1)
	if err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := eng.Approve(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		fmt.Fprintf(e.out, "%s: approved\n", id)
	}
	return errors.Join(errs...)
}

func runReject(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("reject", e.out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := videoArgs(fs, 1)
	if err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	for _, id := range ids {
		n, err := eng.Reject(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(e.out, "%s: reset to pending, %d suggestion(s) removed\n", id, n)
	}
	return nil
}

func runRegenerate(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("regenerate", e.out)
	lang := languageFlag(fs, e.cfg.Workflow.Language)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := videoArgs(fs, 1)
	if err != nil {
		return err
	}
	if err := checkLanguage(*lang); err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	s, err := eng.Regenerate(ctx, ids[0], *lang)
	if err != nil {
		return err
	}
	printSuggestion(e.out, s)
	return nil
}

func runLink(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("link", e.out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: ytseo link <video_id> <episode_id|->")
	}
	videoID, episodeID := fs.Arg(0), fs.Arg(1)
	if !validation.IsValidVideoID(videoID) {
		return fmt.Errorf("invalid video id %q", videoID)
	}
	if episodeID == "-" {
		episodeID = ""
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	if err := eng.LinkEpisode(ctx, videoID, episodeID); err != nil {
		return err
	}
	if episodeID == "" {
		fmt.Fprintf(e.out, "%s: episode link removed\n", videoID)
	} else {
		fmt.Fprintf(e.out, "%s: linked to %s\n", videoID, episodeID)
	}
	return nil
}

func runSearch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("search", e.out)
	limit := fs.Int("limit", 10, "maximum number of episodes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return fmt.Errorf("usage: ytseo search <title words>")
	}

	if _, err := e.connect(app.Options{}); err != nil {
		return err
	}
	hits, err := e.episodes.SearchByTitle(ctx, title, *limit)
	if err != nil {
		return err
	}
	printEpisodes(e.out, hits)
	return nil
}

func runStats(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("stats", e.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := e.connect(app.Options{})
	if err != nil {
		return err
	}
	st, err := eng.Stats(ctx)
	if err != nil {
		return err
	}
	printStats(e.out, st)
	return nil
}

// runAuth walks the installed-app OAuth flow. It does not need the database.
func runAuth(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("auth", e.out)
	code := fs.String("code", "", "authorization code (prompted for when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	yt := e.cfg.YouTube
	oauthCfg, err := youtube.OAuthConfig(yt.ClientSecretFile)
	if err != nil {
		return err
	}

	if *code == "" {
		fmt.Fprintln(e.out, "Open this URL, grant access, then paste the code below:")
		fmt.Fprintln(e.out, youtube.AuthCodeURL(oauthCfg))
		fmt.Fprint(e.out, "Code: ")

		line, err := bufio.NewReader(e.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*code = strings.TrimSpace(line)
		if *code == "" {
			return fmt.Errorf("no authorization code entered")
		}
	}

	if err := youtube.ExchangeAndSave(ctx, oauthCfg, *code, yt.TokenFile); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Token saved to %s\n", yt.TokenFile)
	return nil
}
