package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/output"
	"github.com/conneroisu/panesync/internal/session"
	"github.com/conneroisu/panesync/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	replayOutput string
	replayFile   string
	replayWatch  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Apply a scripted event sequence and report each step",
	Long: `Replay a YAML or JSON event script against a fresh chart. Each event's
hits, gutters and timing are reported, followed by the final layout.

Examples:
  panesync replay session.yaml
  panesync replay session.yaml -o json
  panesync replay session.yaml -o xlsx --out report.xlsx
  panesync replay session.yaml --watch    # Replay on every save`,
	Aliases: []string{"r"},
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return err
		}
		return ValidateFileExists(args[0])
	},
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	addOutputFlag(replayCmd, &replayOutput)
	replayCmd.Flags().StringVar(&replayFile, "out", "", "write the report to a file instead of stdout")
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "replay again whenever the script changes")
}

func runReplay(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(replayOutput)
	if err != nil {
		return err
	}
	if format.Binary() && replayFile == "" {
		return charterrors.NewValidationError(charterrors.ErrCodeValidationFailed,
			fmt.Sprintf("%s output needs --out", format)).
			WithSuggestions("panesync replay " + args[0] + " -o xlsx --out report.xlsx")
	}

	err = replayOnce(cmd.Context(), e, args[0], format, cmd.OutOrStdout())
	if !replayWatch {
		return err
	}
	if err != nil {
		e.logger.Warn(cmd.Context(), err, "replay failed, waiting for changes")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchReplay(ctx, e, args[0], format, cmd.OutOrStdout())
}

// replayOnce runs the script on a fresh chart and writes the report.
func replayOnce(ctx context.Context, e *env, path string, format output.Format, stdout io.Writer) error {
	script, err := session.LoadScript(path)
	if err != nil {
		return err
	}
	s, err := e.newSession()
	if err != nil {
		return err
	}
	defer s.Chart().Close()

	steps, collector := s.Run(ctx, script)
	report := &output.Report{Script: script.Name, Steps: steps, Errors: len(collector.GetAllErrors())}
	if report.Script == "" {
		report.Script = path
	}

	w := stdout
	if replayFile != "" {
		f, err := os.Create(replayFile)
		if err != nil {
			return charterrors.NewIOError(charterrors.ErrCodeInternalError, "cannot create "+replayFile, err)
		}
		defer f.Close()
		w = f
	}
	if err := output.WriteReport(w, format, report); err != nil {
		return err
	}

	if collector.HasErrors() {
		return charterrors.NewValidationError(charterrors.ErrCodeInvalidEvent,
			fmt.Sprintf("%d of %d events failed", report.Errors, len(script.Events)))
	}
	return nil
}

// watchReplay replays the script after every debounced change until ctx
// is done.
func watchReplay(ctx context.Context, e *env, path string, format output.Format, stdout io.Writer) error {
	fw, err := watcher.NewFileWatcher(e.cfg.Watch.Debounce, e.logger)
	if err != nil {
		return charterrors.NewIOError(charterrors.ErrCodeInternalError, "cannot create file watcher", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.ScriptFilter)
	if err := fw.WatchFile(path); err != nil {
		return charterrors.NewIOError(charterrors.ErrCodeInternalError, "cannot watch "+path, err)
	}
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, ev := range events {
			if ev.Type == watcher.EventTypeDeleted {
				e.logger.Info(ctx, "script removed, waiting for it to return", "path", ev.Path)
				return nil
			}
		}
		if err := replayOnce(ctx, e, path, format, stdout); err != nil {
			e.logger.Warn(ctx, err, "replay failed")
		}
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}
	e.logger.Info(ctx, "watching script", "path", path)
	<-ctx.Done()
	return nil
}
