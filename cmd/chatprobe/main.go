package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/app"
	"github.com/ternarybob/chatprobe/internal/common"
)

var (
	// Persistent flags
	configFiles []string
	baseURL     string
	headful     bool

	// Global state, resolved before any subcommand runs
	config      *common.Config
	logger      arbor.ILogger
	application *app.App
)

// exitError carries a process exit status without an error message
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:           "chatprobe",
	Short:         "Browser-driven end-to-end checks for the multi-platform chat app",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Frontend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&headful, "headful", false, "Show the browser window")

	rootCmd.AddCommand(runCmd, watchCmd, scenariosCmd, historyCmd, versionCmd)
}

// initApp runs the startup sequence: config (defaults -> files -> env),
// CLI overrides, logger, banner, application.
func initApp() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("chatprobe.toml"); err == nil {
			configFiles = append(configFiles, "chatprobe.toml")
		} else if _, err := os.Stat("deployments/local/chatprobe.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/chatprobe.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, baseURL, headful)

	logger = common.InitLogger(config)
	common.InstallCrashHandler(config.Logging.Dir)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Bool("history", config.Storage.Enabled).
		Msg("Resolved configuration")

	application, err = app.New(config, logger)
	return err
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	common.SafeGo(logger, "signal", func() {
		select {
		case <-sigChan:
			logger.Info().Msg("Interrupt signal received")
			cancel()
		case <-ctx.Done():
		}
	})

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func closeApp() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close run history")
	}
}

func main() {
	defer common.RecoverWithCrashFile()

	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
