package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cgm-mcp/internal/config"
	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/logging"
	"cgm-mcp/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	provider *eventlog.LogProvider
)

var rootCmd = &cobra.Command{
	Use:   "cgm-mcp",
	Short: "CGM-MCP is a continuous glucose monitoring analytics MCP server",
	Long: `An MCP server that analyses continuous glucose monitoring data against patient profiles:
time in range, AGP envelopes, glycemic events, insulin classification and glucose response to insulin and meals.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		provider = eventlog.NewLogProvider(eventlog.NewEventStore(), cfg.CacheDir)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("profile", cfg.ProfileKey).
			Bool("regimen", cfg.Regimen != nil).
			Msg("CGM-MCP starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		server := mcp.NewServer(cfg, provider, Version)
		return server.Serve(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, analyzeCmd, profilesCmd)
}
