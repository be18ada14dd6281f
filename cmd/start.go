package cmd

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/process"
	"github.com/mihaisavezi/chatrelay/internal/providers"
	"github.com/mihaisavezi/chatrelay/internal/relay"
	"github.com/mihaisavezi/chatrelay/internal/server"
	"github.com/mihaisavezi/chatrelay/internal/tools"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the relay",
	Long:  `Start the chat relay in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	loadEnv()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	registry, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	exa := tools.NewExaClient(cfg.Tools.ExaAPIKey, cfg.Tools.ExaBaseURL, nil)
	toolRegistry := tools.NewRegistry(
		tools.NewSearch(exa),
		tools.NewReadURL(exa, nil, cfg.Tools.ReadURLMaxChars, log),
	)

	factory := providers.NewFactory(registry, providers.NewHTTPClient(timeout), log)
	r := relay.New(factory, registry, log,
		relay.WithEfforts(relay.EffortTable{
			Disabled: cfg.ThinkingEfforts.Disabled,
			Fast:     cfg.ThinkingEfforts.Fast,
			Slow:     cfg.ThinkingEfforts.Slow,
		}),
		relay.WithTools(toolRegistry.Definitions()),
		relay.WithTokenCounter(relay.NewTiktokenCounter("", log)),
	)

	color.Green("Starting %s v%s...", AppName, Version)
	log.Info("Starting relay",
		"host", cfg.Host,
		"port", cfg.Port,
		"providers", registry.Len(),
		"exa", exa.Configured(),
	)

	procMgr := process.NewManager(baseDir, log)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(cfgMgr, server.Deps{
		Relay:    r,
		Tools:    toolRegistry,
		Registry: registry,
	}, log)
	return srv.Start()
}

// loadEnv reads .env from the working directory and the config directory.
// Variables already set win.
func loadEnv() {
	for _, path := range []string{".env", filepath.Join(baseDir, ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to load env file", "path", path, "error", err)
		}
	}
}
