// Package cmd provides the command-line interface for openpedalcore.
package cmd

import (
	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Version information (set by main)
	version   string
	gitCommit string
	buildTime string

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	logOutput string

	// Populated by PersistentPreRunE for every subcommand.
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "openpedalcore",
	Short: "Power budget and port assignment engine for pedalboards",
	Long: `OpenPedalCore plans the power side of a pedalboard: it totals the current
draw of your pedals against your supplies, assigns every pedal to a compatible
supply output and suggests daisy chains where outputs run short.

It serves workbenches over REST and WebSocket, answers one-off budget
questions on the command line and exposes the engine to AI assistants
through the Model Context Protocol.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		logger, err = setupLogger(cfg.Log)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("Using config file", zap.String("file", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information from main.
func SetVersionInfo(ver, commit, build string) {
	version = ver
	gitCommit = commit
	buildTime = build
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "config file (YAML); a missing file leaves defaults and OPC_* environment in effect")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "log output (stderr, /path/to/file, or /path/to/dir/)")

	// Bind flags to viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))
}
