package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the chat relay configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration",
	Long:  `Write a commented config.yaml to the configuration directory.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration with secrets masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the current configuration and its catalog overlay.`,
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing configuration")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if cfgMgr.Exists() && !force {
		color.Yellow("Configuration already exists at %s (use --force to overwrite)", cfgMgr.GetPath())
		return nil
	}

	if err := cfgMgr.CreateExampleYAML(); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	color.Green("Configuration written to: %s", cfgMgr.GetPath())
	color.Cyan("Start the relay with: %s start", AppName)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	color.Blue("Current Configuration:")
	fmt.Printf("  %-18s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-18s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-18s: %s\n", "Relay URL", cfg.RelayURL)
	fmt.Printf("  %-18s: %s\n", "Catalog File", orNone(cfg.CatalogFile))
	fmt.Printf("  %-18s: %s\n", "Request Timeout", cfg.RequestTimeout)
	fmt.Printf("  %-18s: %s\n", "Config Path", cfgMgr.GetPath())

	fmt.Println("\nThinking Efforts:")
	fmt.Printf("  %-18s: %s\n", "Disabled", cfg.ThinkingEfforts.Disabled)
	fmt.Printf("  %-18s: %s\n", "Fast", cfg.ThinkingEfforts.Fast)
	fmt.Printf("  %-18s: %s\n", "Slow", cfg.ThinkingEfforts.Slow)

	fmt.Println("\nTools:")
	fmt.Printf("  %-18s: %s\n", "Exa API Key", maskString(cfg.Tools.ExaAPIKey))
	fmt.Printf("  %-18s: %s\n", "Exa Base URL", cfg.Tools.ExaBaseURL)
	fmt.Printf("  %-18s: %d\n", "Read URL Max Chars", cfg.Tools.ReadURLMaxChars)

	if len(cfg.Providers) > 0 {
		fmt.Println("\nProviders:")
		ids := make([]string, 0, len(cfg.Providers))
		for id := range cfg.Providers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			p := cfg.Providers[id]
			fmt.Printf("  - %s (enabled: %v) key: %s\n", id, p.Enabled, maskString(p.APIKey))
		}
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		return fmt.Errorf("no configuration found")
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var problems []string
	if err := cfg.Validate(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}

	registry, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		for id := range cfg.Providers {
			if _, err := registry.Get(id); errors.Is(err, catalog.ErrProviderNotFound) {
				problems = append(problems, fmt.Sprintf("providers.%s: not in catalog", id))
			}
		}
	}

	if len(problems) > 0 {
		color.Red("Configuration validation failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration validation failed")
	}

	color.Green("Configuration is valid!")
	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
