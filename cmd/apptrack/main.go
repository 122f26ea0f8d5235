package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"apptrack/internal/bootstrap"
	"apptrack/internal/modules/usage/dto"
	"apptrack/internal/platform/markdown"
)

const shutdownTimeout = 10 * time.Second

type rootFlags struct {
	configPath string
	probe      string
	json       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "apptrack",
		Short:         "Track foreground application usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "apptrack.yaml", "config document path")
	root.PersistentFlags().StringVar(&flags.probe, "probe", "", "probe override: xdotool | plugin[:path] | static[:app]")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print query results as JSON")

	root.AddCommand(newTrackCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newProbeCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newReportCmd(flags))
	root.AddCommand(newTopCmd(flags))
	root.AddCommand(newTodayCmd(flags))
	root.AddCommand(newCategoriesCmd(flags))
	root.AddCommand(newAppsCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newBackupCmd(flags))
	root.AddCommand(newReindexCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

func loadApp(ctx context.Context, flags *rootFlags) (*bootstrap.App, error) {
	return bootstrap.Load(ctx, flags.configPath, bootstrap.Options{Probe: flags.probe})
}

// withApp wires the app, runs fn and releases the app afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := loadApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ─── tracking ────────────────────────────────────────────────────────────────

func newTrackCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "Run the tracking loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracking every %s, history=%s (ctrl+c to stop)\n", app.Config.PollInterval(), app.Config.HistoryPath())
				return app.UsageCLI.Track(ctx)
			})
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Track and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if listen != "" {
					app.Config.HTTP.Listen = listen
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				srv := bootstrap.NewServer(app)
				g, gctx := errgroup.WithContext(ctx)
				if err := app.UsageCLI.Start(gctx); err != nil {
					return err
				}
				g.Go(func() error {
					<-gctx.Done()
					stopCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
					defer cancel()
					return app.UsageCLI.Stop(stopCtx)
				})
				g.Go(func() error {
					app.Logger.Info("http listening", zap.String("addr", srv.Addr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("http server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
				return g.Wait()
			})
		},
	}
	serve.Flags().StringVar(&listen, "listen", "", "listen address (overrides http.listen)")
	return serve
}

func newProbeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Sample the focused window once and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.UsageCLI.ProbeOnce(ctx)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), status.Current)
				}
				if status.Current == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tracked application (excluded)")
					return nil
				}
				c := status.Current
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "application=%s category=%s pid=%d title=%q\n", c.Application, c.Category, c.PID, c.WindowTitle)
				return nil
			})
		},
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var refresh time.Duration
	var track bool
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Open the live terminal view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if track {
					if err := app.UsageTUI.Start(ctx); err != nil {
						return err
					}
					defer func() { _ = app.UsageTUI.Stop(context.WithoutCancel(ctx)) }()
				}
				return bootstrap.RunWatch(app, refresh)
			})
		},
	}
	watch.Flags().DurationVar(&refresh, "refresh", 2*time.Second, "refresh interval")
	watch.Flags().BoolVar(&track, "track", true, "run the tracking loop while watching")
	return watch
}

// ─── queries ─────────────────────────────────────────────────────────────────

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracker state and history totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.UsageCLI.Status(ctx)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), status)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "history: %s (%s backend)\n", app.Config.HistoryPath(), app.Config.Storage.Backend)
				_, _ = fmt.Fprintf(out, "applications: %s\nsessions: %s\n", humanize.Comma(int64(status.TotalApps)), humanize.Comma(int64(status.TotalSessions)))
				if info, statErr := os.Stat(app.Config.HistoryPath()); statErr == nil {
					_, _ = fmt.Fprintf(out, "file: %s, modified %s\n", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
				}
				if status.LastError != "" {
					_, _ = fmt.Fprintf(out, "warning: %s\n", status.LastError)
				}
				return nil
			})
		},
	}
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	var pretty bool
	report := &cobra.Command{
		Use:   "report",
		Short: "Print the usage report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if !pretty {
					out, err := app.UsageCLI.Report(ctx)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Text)
					return nil
				}
				exported, err := app.UsageCLI.Export(ctx, "markdown")
				if err != nil {
					return err
				}
				body, err := markdown.Split(string(exported.Body), &map[string]any{})
				if err != nil {
					return err
				}
				renderer, err := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(100))
				if err != nil {
					return fmt.Errorf("new markdown renderer: %w", err)
				}
				rendered, err := renderer.Render(body)
				if err != nil {
					return fmt.Errorf("render report: %w", err)
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}
	report.Flags().BoolVar(&pretty, "pretty", false, "render the markdown report for the terminal")
	return report
}

func printAppUsage(w io.Writer, apps []dto.AppUsageOutput) {
	if len(apps) == 0 {
		_, _ = fmt.Fprintln(w, "no usage recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, a := range apps {
		_, _ = fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\t%d sessions\n", i+1, a.Application, a.Category, a.Duration, a.Sessions)
	}
	_ = tw.Flush()
}

func newTopCmd(flags *rootFlags) *cobra.Command {
	var n int
	top := &cobra.Command{
		Use:   "top",
		Short: "Show the most used applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				apps, err := app.UsageCLI.Top(ctx, n)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), apps)
				}
				printAppUsage(cmd.OutOrStdout(), apps)
				return nil
			})
		},
	}
	top.Flags().IntVarP(&n, "limit", "n", 5, "number of applications")
	return top
}

func newTodayCmd(flags *rootFlags) *cobra.Command {
	var date string
	today := &cobra.Command{
		Use:   "today",
		Short: "Show per-application usage for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				day, err := app.UsageCLI.Today(ctx, date)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), day)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", day.Date, time.Duration(day.TotalSeconds)*time.Second)
				printAppUsage(cmd.OutOrStdout(), day.Applications)
				return nil
			})
		},
	}
	today.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return today
}

func newCategoriesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show usage grouped by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				categories, err := app.UsageCLI.Categories(ctx)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), categories)
				}
				if len(categories) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no usage recorded")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, c := range categories {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d sessions\t%s\n", c.Title, c.Duration, c.SessionCount, strings.Join(c.Applications, ", "))
				}
				return tw.Flush()
			})
		},
	}
}

func newAppsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List every tracked application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				history, err := app.UsageCLI.Apps(ctx)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(cmd.OutOrStdout(), history)
				}
				if len(history.Applications) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no applications tracked")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "APPLICATION\tCATEGORY\tTOTAL\tSESSIONS\tMEDIAN\tLAST USED")
				for _, a := range history.Applications {
					lastUsed := "never"
					if !a.LastUsed.IsZero() {
						lastUsed = humanize.Time(a.LastUsed)
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						a.Name,
						a.Category,
						time.Duration(a.TotalSeconds)*time.Second,
						humanize.Comma(int64(a.TotalSessions)),
						time.Duration(a.MedianSeconds*float64(time.Second)).Round(time.Second),
						lastUsed)
				}
				return tw.Flush()
			})
		},
	}
}

// ─── data management ─────────────────────────────────────────────────────────

func newExportCmd(flags *rootFlags) *cobra.Command {
	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the history as json, csv, text or markdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.UsageCLI.Export(ctx, format)
				if err != nil {
					return err
				}
				if output == "-" {
					_, err = cmd.OutOrStdout().Write(out.Body)
					return err
				}
				path := output
				if path == "" {
					path = out.Filename
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create export dir: %w", err)
				}
				if err := os.WriteFile(path, out.Body, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%s)\n", path, humanize.Bytes(uint64(len(out.Body))))
				return nil
			})
		},
	}
	export.Flags().StringVar(&format, "format", "json", "json | csv | text | markdown")
	export.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default app_usage_<timestamp>.<ext>)")
	return export
}

func newBackupCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the history file to a timestamped backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.UsageCLI.Backup(ctx)
				if err != nil {
					return err
				}
				if !out.Created {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing to back up")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "backup written: %s\n", out.Path)
				return nil
			})
		},
	}
}

func newReindexCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the SQLite session index from the history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.UsageCLI.Reindex(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reindex completed: %d sessions\n", out.Sessions)
				return nil
			})
		},
	}
}
