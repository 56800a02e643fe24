package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"ecotrack/config"
	"ecotrack/internal/app"
	"ecotrack/internal/events"
	"ecotrack/services"
	"ecotrack/utils"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Opener connects the engine for a command run.
type Opener func(ctx context.Context, opts *RootOptions) (*app.Services, error)

// OpenFromConfig loads the config file and connects MongoDB and, when
// enabled, Redis. Events go to the Redis stream so running servers relay them.
func OpenFromConfig(ctx context.Context, opts *RootOptions) (*app.Services, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	app.Configure(cfg)
	if opts.Verbose {
		utils.SetLogLevel(utils.LevelDebug)
	}
	svc, err := app.OpenServices(ctx, cfg, func(rdb *redis.Client) services.EventPublisher {
		if rdb == nil {
			return nil
		}
		return events.NewStreamPublisher(rdb, cfg.Redis.Stream)
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect stores", err)
	}
	return svc, nil
}

func defaultConfigPath() string {
	if p := os.Getenv("ECOTRACK_CONFIG"); p != "" {
		return p
	}
	return "./config/config.yml"
}

// NewRootCommand creates the root command for the operator CLI.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromConfig
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ecotrackctl",
		Short: "ecotrackctl - engagement maintenance",
		Long:  "Operator tools for the ecotrack engagement engine: period resets, leaderboard dumps and badge recomputation.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath(), "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewResetPeriodsCommand(opts, open))
	cmd.AddCommand(NewLeaderboardCommand(opts, open))
	cmd.AddCommand(NewRecomputeBadgesCommand(opts, open))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withServices opens the engine, runs fn and releases the connections.
func withServices(cmd *cobra.Command, opts *RootOptions, open Opener, fn func(context.Context, *app.Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)
	return fn(ctx, svc)
}
