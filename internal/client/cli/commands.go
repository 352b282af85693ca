package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/confsync/internal/client/iocli"
	"github.com/iudanet/confsync/internal/config"
)

// RootOptions глобальные флаги клиента
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Transport  string
	DirPath    string
	LogLevel   string
	Format     string // text | json

	config *config.Config
	logger *slog.Logger
}

// BuildInfo сведения о сборке для команды version
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// NewRootCommand создает корневую команду клиента
func NewRootCommand(open Opener, build BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "confsync",
		Short: "confsync - offline-first configuration sync",
		Long: `Edit sites, monitors and settings locally and synchronize them
between devices through a shared folder, an S3 bucket or a relay server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("CONFSYNC_CONFIG"), "path to YAML config")
	flags.StringVar(&opts.DBPath, "db", "", "path to local database")
	flags.StringVar(&opts.Transport, "transport", "", "transport kind (dir|s3|http)")
	flags.StringVar(&opts.DirPath, "dir", "", "sync root directory for dir transport")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(
		newSetCommand(opts, open),
		newCreateCommand(opts, open),
		newDeleteCommand(opts, open),
		newShowCommand(opts, open),
		newSyncCommand(opts, open),
		newCompactCommand(opts, open),
		newWatchCommand(opts, open),
		newStatusCommand(opts, open),
		newResetCommand(opts, open),
		newLoginCommand(opts, open),
		newLogoutCommand(opts, open),
		newVersionCommand(build),
	)

	return cmd
}

// load читает конфиг и применяет флаги командной строки поверх него
func (o *RootOptions) load(cmd *cobra.Command) error {
	if o.Format != "text" && o.Format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", o.Format)
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Device.DBPath = o.DBPath
	}
	if flags.Changed("transport") {
		cfg.Transport.Kind = o.Transport
	}
	if flags.Changed("dir") {
		cfg.Transport.Dir.Path = o.DirPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.config = cfg
	o.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	return nil
}

// run открывает сессию, выполняет fn и закрывает сессию
func (o *RootOptions) run(cmd *cobra.Command, open Opener, fn func(ctx context.Context, c *Cli, s *Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := open(ctx, o.config, o.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Error("failed to close session", "error", err)
		}
	}()

	c := New(iocli.NewStdioWith(cmd.InOrStdin(), cmd.OutOrStdout()), session.Engine, o.logger).
		WithAuth(session.Auth)
	return fn(ctx, c, session)
}

func newSetCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:     "set <type> <id> <field>=<value>...",
		Short:   "Set fields of an entity",
		Example: `  confsync set site home name=Home url=https://example.com
  confsync set monitor m1 interval=30 enabled=true`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runSet(ctx, args)
			})
		},
	}
}

func newCreateCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:     "create <type> <field>=<value>...",
		Short:   "Create an entity with a generated id",
		Example: `  confsync create site name=Home url=https://example.com`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runCreate(ctx, args)
			})
		},
	}
}

func newDeleteCommand(opts *RootOptions, open Opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runDelete(ctx, args, yes)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newShowCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show [type|id]",
		Short: "Show the local configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runShow(ctx, args, opts.Format)
			})
		},
	}
}

func newSyncCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runSync(ctx)
			})
		},
	}
}

func newCompactCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Synchronize and publish a snapshot of the merged state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.config.Sync.CompactThreshold = 1
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runCompact(ctx)
			})
		},
	}
}

func newWatchCommand(opts *RootOptions, open Opener) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Synchronize continuously until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = opts.config.Sync.WatchInterval
			}
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, s *Session) error {
				return c.runWatch(ctx, WatchOptions{
					Interval:    interval,
					Watch:       s.Watch,
					Metrics:     s.Metrics,
					MetricsAddr: metricsAddr,
				})
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "polling interval")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func newStatusCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device and sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runStatus(ctx)
			})
		},
	}
}

func newResetCommand(opts *RootOptions, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the sync root",
	}

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Show what a reset would delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runResetPreview(ctx)
			})
		},
	}

	var yes bool
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Delete all remote logs and snapshots and republish local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runResetApply(ctx, yes)
			})
		},
	}
	apply.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(preview, apply)
	return cmd
}

func newLoginCommand(opts *RootOptions, open Opener) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the relay token issued by 'confsync-server token'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runLogin(ctx, token)
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "relay token (prompted if empty)")
	return cmd
}

func newLogoutCommand(opts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved relay token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, open, func(ctx context.Context, c *Cli, _ *Session) error {
				return c.runLogout(ctx)
			})
		},
	}
}

func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Версии не нужен конфиг
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "confsync\n")
			fmt.Fprintf(out, "Version:    %s\n", build.Version)
			fmt.Fprintf(out, "Build Date: %s\n", build.BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", build.GitCommit)
		},
	}
}
