package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath string
	redisURL   string
	namespace  string
	scope      string
	logLevel   string
	settle     time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "livestore",
	Short: "livestore - values kept in sync across processes",
	Long: `livestore reads and writes named values that stay consistent across
every process sharing the same Redis.

Each process keeps its own persisted copy per session scope. A process that
has no copy yet asks live peers for theirs, and every change is broadcast
to all peers watching the same value.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "livestore.yml", "Path to livestore.yml (defaults apply when missing)")
	flags.StringVar(&redisURL, "redis-url", "", "Redis URL, overrides config and LIVESTORE_REDIS_URL")
	flags.StringVar(&namespace, "namespace", "", "Key namespace, overrides config and LIVESTORE_NAMESPACE")
	flags.StringVar(&scope, "scope", "", "Session scope of the persisted copy (defaults to the hostname)")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.DurationVar(&settle, "settle", 300*time.Millisecond, "How long to wait for peers to answer before acting")
}

// setupLogger configures the global zerolog logger to write to stderr
func setupLogger(level string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(parsedLevel)
	return nil
}
