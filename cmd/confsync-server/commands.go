package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/confsync/internal/config"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/server"
	"github.com/iudanet/confsync/internal/server/handlers"
	"github.com/iudanet/confsync/internal/server/storage"
	"github.com/iudanet/confsync/internal/server/storage/sqlite"
	"github.com/iudanet/confsync/internal/validation"
	"github.com/iudanet/confsync/pkg/api"
)

// options глобальные флаги сервера
type options struct {
	configPath string
	dbPath     string
	logLevel   string

	config *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "confsync-server",
		Short:         "confsync relay server",
		Long:          `Relay server that stores one sync root for devices without a shared folder or S3 bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFSYNC_CONFIG"), "path to YAML config")
	flags.StringVar(&opts.dbPath, "db", "", "path to server database")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newTokenCommand(opts),
		newDevicesCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("db") {
		cfg.Server.DBPath = o.dbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.config = cfg
	o.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	return nil
}

func (o *options) jwtConfig() (handlers.JWTConfig, error) {
	if o.config.Server.JWTSecret == "" {
		return handlers.JWTConfig{}, errors.New("server.jwt_secret is required (or CONFSYNC_JWT_SECRET)")
	}
	return handlers.JWTConfig{
		Secret:         []byte(o.config.Server.JWTSecret),
		AccessTokenTTL: o.config.Server.TokenTTL,
	}, nil
}

// withStore открывает базу сервера на время выполнения fn
func (o *options) withStore(ctx context.Context, fn func(store *sqlite.Storage) error) error {
	store, err := sqlite.New(ctx, o.config.Server.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			o.logger.Error("failed to close database", "error", err)
		}
	}()
	return fn(store)
}

func newServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync root over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtCfg, err := opts.jwtConfig()
			if err != nil {
				return err
			}
			cfg := opts.config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			return opts.withStore(cmd.Context(), func(store *sqlite.Storage) error {
				srv := server.New(server.Config{
					Addr:         cfg.Addr,
					Version:      Version,
					JWT:          jwtCfg,
					RateLimit:    cfg.RateLimit,
					RateWindow:   cfg.RateWindow,
					MaxBodyBytes: cfg.MaxBodyBytes,
				}, opts.logger, store)
				return srv.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newTokenCommand(opts *options) *cobra.Command {
	var (
		deviceID string
		label    string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Register a device and issue its access token",
		Long: `Register a device and print a token for it. Run 'confsync status' on the
device to find its id, then 'confsync login --token <token>' to save it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateDeviceID(deviceID); err != nil {
				return err
			}
			jwtCfg, err := opts.jwtConfig()
			if err != nil {
				return err
			}

			return opts.withStore(cmd.Context(), func(store *sqlite.Storage) error {
				if err := ensureDevice(cmd.Context(), store, deviceID, label); err != nil {
					return err
				}

				token, expiresIn, err := handlers.GenerateDeviceToken(jwtCfg, deviceID)
				if err != nil {
					return err
				}
				opts.logger.Info("Device token issued", "device_id", deviceID)

				out := cmd.OutOrStdout()
				if asJSON {
					return json.NewEncoder(out).Encode(api.TokenResponse{
						AccessToken: token,
						DeviceID:    deviceID,
						ExpiresIn:   expiresIn,
					})
				}
				fmt.Fprintln(out, token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&deviceID, "device", "", "device id (shown by 'confsync status')")
	cmd.Flags().StringVar(&label, "label", "", "human readable device name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print token with metadata as JSON")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

// ensureDevice регистрирует устройство. Повторная выдача токена
// существующему устройству разрешена, отозванному - нет.
func ensureDevice(ctx context.Context, store *sqlite.Storage, deviceID, label string) error {
	err := store.CreateDevice(ctx, &models.Device{
		ID:        deviceID,
		Label:     label,
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, storage.ErrDeviceAlreadyExists) {
		return err
	}

	device, err := store.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if device.Revoked() {
		return fmt.Errorf("device %s was revoked", deviceID)
	}
	return nil
}

func newDevicesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage registered devices",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store *sqlite.Storage) error {
				devices, err := store.ListDevices(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(devices) == 0 {
					fmt.Fprintln(out, "No devices registered.")
					return nil
				}
				for _, d := range devices {
					state := "active"
					if d.Revoked() {
						state = "revoked " + d.RevokedAt.Format(time.RFC3339)
					}
					lastSeen := "never"
					if d.LastSeenAt != nil {
						lastSeen = d.LastSeenAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\tlast seen %s\n", d.ID, d.Label, state, lastSeen)
				}
				return nil
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <device>",
		Short: "Revoke access of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(store *sqlite.Storage) error {
				if err := store.RevokeDevice(cmd.Context(), args[0], time.Now()); err != nil {
					return err
				}
				opts.logger.Info("Device revoked", "device_id", args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Device %s revoked\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, revoke)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Версии не нужен конфиг
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "confsync-server\n")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
