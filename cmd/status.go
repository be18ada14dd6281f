package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show relay status",
	Long:  `Display the current status of the chat relay.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) {
	procMgr := process.NewManager(baseDir, log)
	cfg := cfgMgr.Get()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()

	running := procMgr.IsRunning()
	healthy := process.Healthy(ctx, cfg.RelayURL+"/health")

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-15s: %v\n", "Running", running)
	fmt.Printf("  %-15s: %v\n", "Healthy", healthy)
	fmt.Printf("  %-15s: %d\n", "PID", procMgr.ReadPID())
	fmt.Printf("  %-15s: %s\n", "Listen", cfg.Addr())
	fmt.Printf("  %-15s: %s\n", "Relay URL", cfg.RelayURL)
	fmt.Printf("  %-15s: %s\n", "Config Path", cfgMgr.GetPath())
	fmt.Printf("  %-15s: %d\n", "Sessions", procMgr.ReadRef())
	fmt.Printf("  %-15s: v%s\n", "Version", Version)
}
