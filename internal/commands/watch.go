package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/baselinespectre/internal/compat"
	"github.com/ppiankov/baselinespectre/internal/config"
	"github.com/ppiankov/baselinespectre/internal/report"
	"github.com/ppiankov/baselinespectre/internal/watch"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	scanOptions
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch [patterns...]",
	Short: "Re-scan whenever source files change",
	Long: `Watch the working directory and re-run the scan after files change, printing
the text report each time. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	addPolicyFlags(watchCmd, &watchFlags.scanOptions)
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-scanning")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".")
	if err != nil {
		slog.Warn("Failed to load config file", "error", err)
	}
	o := &watchFlags.scanOptions
	o.format = defaultFormat
	applyScanConfigDefaults(o, cfg)

	opts := compat.ScanOptions{
		Patterns:     resolvePatterns(args, o.files, cfg.Files),
		BaselineYear: o.baselineYear,
		AllowNewly:   o.allowNewly,
		AllowLimited: o.allowLimited,
	}
	s := newScanner(o)
	out := cmd.OutOrStdout()

	rescan := func() {
		results, err := s.Scan(ctx, opts, nil)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintln(os.Stderr, enhanceError("scan", err))
			}
			return
		}
		r := &report.TextReporter{Writer: out, NoColor: out != os.Stdout}
		if err := r.Generate(buildReportData(opts, *results)); err != nil {
			slog.Warn("Failed to write report", "error", err)
		}
	}

	rescan()
	fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl-C to stop)...")
	return watch.New(".", watchFlags.debounce).Run(ctx, rescan)
}
