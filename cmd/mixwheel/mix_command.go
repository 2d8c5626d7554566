package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mixwheel/internal/combine"
	"mixwheel/internal/contentcache"
	"mixwheel/internal/fetch"
	"mixwheel/internal/history"
	"mixwheel/internal/media/ffmpeg"
	"mixwheel/internal/mix"
	"mixwheel/internal/rotation"
	"mixwheel/internal/source"
	"mixwheel/internal/truncation"
)

func newMixCommand(ctx *commandContext) *cobra.Command {
	var (
		includeVideo bool
		recurse      bool
		dryRun       bool
		noCache      bool
		longMax      float64
		longCutoff   float64
		cookiesPath  string
	)

	cmd := &cobra.Command{
		Use:   "mix <album> <source>...",
		Short: "Build a mix album from remote playlists, remote videos, and local directories",
		Long: `Build a mix album by interleaving tracks across sources in circular
rotation. Sources are remote playlist or video references, or local
directories of MP3 files. Each output track combines one file from
every source; shorter sources wrap around until the longest is
exhausted.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var cache contentcache.Store = contentcache.Nop{}
			closeCache := func() {}
			if !dryRun && !noCache {
				cache, closeCache, err = ctx.openCache()
				if err != nil {
					return err
				}
			}
			defer closeCache()

			fetcher, err := fetch.NewYtDlp(cfg.Tools.YtDlp)
			if err != nil {
				return err
			}
			ffmpegClient, err := ffmpeg.New(cfg.Tools.FFmpeg)
			if err != nil {
				return err
			}

			var ledger *history.Store
			if cfg.History.Enabled && !dryRun {
				ledger, err = history.Open(cfg.History.Path)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer ledger.Close()
			}

			resolver := source.NewResolver(cache, fetcher, cfg.Tools.FFprobe,
				time.Duration(cfg.Fetch.ItemTimeoutSeconds)*time.Second, logger)
			combiner := combine.New(ffmpegClient, cfg.Tools.FFprobe, logger)

			pipelineOpts := []mix.PipelineOption{}
			if hook := newProgressHook(); hook != nil {
				pipelineOpts = append(pipelineOpts, mix.WithStepHook(hook))
			}

			pipeline := mix.New(cfg, cache, resolver, combiner, ledger, logger, pipelineOpts...)

			report, err := pipeline.Run(runCtx, mix.Options{
				Sources:      args[1:],
				Album:        args[0],
				IncludeVideo: includeVideo,
				Recurse:      recurse,
				DryRun:       dryRun,
				CookiesPath:  cookiesPath,
				Window: truncation.Window{
					MaxMinutes:    longMax,
					CutoffMinutes: longCutoff,
				},
			})
			if err != nil {
				return err
			}

			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeVideo, "video", false, "Also build the video rotation from MP4 content")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Scan local directories recursively")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the plan without retrieving or writing anything")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the downloaded-content cache for this run")
	cmd.Flags().Float64Var(&longMax, "long-max", 0, "Minutes above which a segment counts as long (requires --long-cutoff)")
	cmd.Flags().Float64Var(&longCutoff, "long-cutoff", 0, "Minutes kept from a long segment (requires --long-max)")
	cmd.Flags().StringVar(&cookiesPath, "cookies", "", "Cookies file forwarded to remote retrieval")

	return cmd
}

// newProgressHook returns a per-track progress bar when stderr is a
// terminal, nil otherwise so batch logs stay clean.
func newProgressHook() mix.StepHook {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return nil
	}

	var bar *progressbar.ProgressBar
	var barKind rotation.MediaKind = -1
	return func(kind rotation.MediaKind, step, total int) {
		if bar == nil || barKind != kind {
			if bar != nil {
				_ = bar.Finish()
			}
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("combining "+kind.String()),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			barKind = kind
		}
		_ = bar.Set(step - 1)
	}
}

func printReport(cmd *cobra.Command, report *mix.Report) {
	out := cmd.OutOrStdout()

	if len(report.Sources) > 0 {
		rows := make([][]string, 0, len(report.Sources))
		for _, src := range report.Sources {
			rows = append(rows, []string{
				strconv.Itoa(src.Index),
				src.Kind,
				src.Location,
				strconv.Itoa(src.AudioFiles),
				strconv.Itoa(src.VideoFiles),
				strconv.Itoa(src.Failed),
				strconv.Itoa(src.Cached),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Kind", "Source", "Audio", "Video", "Failed", "Cached"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}

	if report.DryRun {
		fmt.Fprintf(out, "Dry run: would produce %d audio track(s)", report.AudioTracks)
		if report.VideoTracks > 0 {
			fmt.Fprintf(out, " and %d video track(s)", report.VideoTracks)
		}
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintf(out, "Produced %d audio track(s)", report.AudioTracks)
	if report.VideoTracks > 0 {
		fmt.Fprintf(out, " and %d video track(s)", report.VideoTracks)
	}
	fmt.Fprintf(out, " in %s\n", report.OutputDir)
	if report.FailedTracks > 0 {
		fmt.Fprintf(out, "%d track(s) failed to build\n", report.FailedTracks)
	}
	if report.FailedItems > 0 {
		fmt.Fprintf(out, "%d remote item(s) could not be retrieved\n", report.FailedItems)
	}
	if report.CachedItems > 0 {
		fmt.Fprintf(out, "%d item(s) served from cache\n", report.CachedItems)
	}
	fmt.Fprintf(out, "Finished in %s\n", report.Elapsed.Round(time.Second))
}
