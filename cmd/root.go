package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/config"
	"github.com/mihaisavezi/chatrelay/internal/logger"
)

const (
	AppName = "chatrelay"
	Version = "0.1.0"

	logFilename = "chatrelay.log"
)

var (
	log     *slog.Logger
	baseDir string
	cfgMgr  *config.Manager
	logFile *os.File
)

func init() {
	log = logger.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("Failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	cfgMgr = config.NewManager(baseDir)
}

var rootCmd = &cobra.Command{
	Use:     AppName,
	Short:   "Chat relay - stream LLM replies as newline-delimited JSON",
	Long:    `A relay that accepts chat requests, invokes the selected provider and re-streams its output as newline-delimited JSON chunks.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		pretty, _ := cmd.Flags().GetBool("pretty")
		toFile, _ := cmd.Flags().GetBool("log-file")
		return setupLogging(verbose, pretty, toFile)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().Bool("pretty", false, "colourised log output")
	rootCmd.PersistentFlags().BoolP("log-file", "l", false, "also write JSON logs to "+logFilename)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(chatCmd)
}

func setupLogging(verbose, pretty, toFile bool) error {
	console := logger.New(logger.WithDebug(verbose), logger.WithPretty(pretty))
	if !toFile {
		log = console
		return nil
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(baseDir, logFilename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f

	log = logger.Multi(console, logger.New(logger.WithWriter(f), logger.WithJSON(true), logger.WithDebug(verbose)))
	return nil
}

// loadConfig reads the config file, falling back to defaults when none
// exists yet.
func loadConfig() (*config.Config, error) {
	if !cfgMgr.Exists() {
		color.Yellow("No configuration found, using defaults. Run '%s config init' to create one.", AppName)
		return config.Default(), nil
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
