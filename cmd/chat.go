package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/client"
	"github.com/mihaisavezi/chatrelay/internal/process"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a model through the relay",
	Long:  `Start the relay if needed and open an interactive chat session. Tool calls proposed by the model are executed only after approval.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("provider", "opencode", "provider id")
	chatCmd.Flags().String("model", "big-pickle", "model id")
	chatCmd.Flags().String("thinking", "", "reasoning: off, fast or slow")
	chatCmd.Flags().Bool("auto-approve", false, "run tool calls without asking")
}

func runChat(cmd *cobra.Command, _ []string) error {
	providerID, _ := cmd.Flags().GetString("provider")
	modelID, _ := cmd.Flags().GetString("model")
	thinkingFlag, _ := cmd.Flags().GetString("thinking")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	settings := cfg.Settings(registry)
	if !settings.IsModelAvailable(registry, providerID, modelID) {
		return fmt.Errorf("model %s/%s is not available with the current settings", providerID, modelID)
	}

	thinking, err := parseThinking(thinkingFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	procMgr := process.NewManager(baseDir, log)
	startedByUs, err := procMgr.StartServiceIfNeeded(ctx, cfg.RelayURL+"/health")
	if err != nil {
		return err
	}
	procMgr.IncrementRef()
	defer func() {
		if procMgr.DecrementRef() == 0 && startedByUs {
			if err := procMgr.Stop(); err != nil {
				log.Warn("Failed to stop relay", "error", err)
			}
		}
	}()

	errColor := color.New(color.FgRed)
	session := client.NewSession(
		client.New(cfg.RelayURL, nil, log),
		chat.Request{
			ProviderID: providerID,
			ModelID:    modelID,
			APIKey:     settings.APIKeyFor(registry, providerID, modelID),
			Thinking:   thinking,
		},
		log,
		client.WithNotice(func(msg string) { errColor.Printf("\n! %s\n", msg) }),
	)

	color.Cyan("Chatting with %s/%s. Type /quit to leave.", providerID, modelID)

	in := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgBlue, color.Bold).Print("\n> ")
		if !in.Scan() {
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		if _, err := session.Send(ctx, text, printChunk); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		for {
			ran, err := runToolCalls(ctx, session, in, autoApprove)
			if err != nil || !ran {
				break
			}
			if _, err := session.Continue(ctx, printChunk); err != nil {
				break
			}
		}
	}
}

// runToolCalls asks about every pending call and reports whether any ran.
func runToolCalls(ctx context.Context, session *client.Session, in *bufio.Scanner, autoApprove bool) (bool, error) {
	ran := false
	for _, call := range session.PendingToolCalls() {
		if !autoApprove {
			color.Yellow("\nRun %s %s? [y/N] ", call.Name, string(call.Args))
			if !in.Scan() {
				return ran, in.Err()
			}
			if answer := strings.ToLower(strings.TrimSpace(in.Text())); answer != "y" && answer != "yes" {
				continue
			}
		}

		if _, err := session.ExecuteTool(ctx, call.ID); err != nil {
			log.Debug("Tool call failed", "tool", call.Name, "error", err)
			continue
		}
		color.Green("  %s done", call.Name)
		ran = true
	}
	return ran, nil
}

var (
	reasoningColor = color.New(color.Faint)
	toolColor      = color.New(color.FgMagenta)
)

func printChunk(c stream.Chunk) {
	switch c.Type {
	case stream.TypeText:
		fmt.Print(c.Content)
	case stream.TypeReasoning:
		reasoningColor.Print(c.Content)
	case stream.TypeToolCall:
		toolColor.Printf("\n[tool call %s %s]", c.ToolName, string(c.Arguments()))
	case stream.TypeToolResult:
		toolColor.Printf("\n[tool result %s]", c.ToolName)
	case stream.TypeDone:
		fmt.Println()
	}
}

func parseThinking(s string) (*chat.ThinkingConfig, error) {
	switch strings.ToLower(s) {
	case "":
		return nil, nil
	case "off", "disabled":
		return &chat.ThinkingConfig{Type: chat.ThinkingDisabled}, nil
	case "fast":
		return &chat.ThinkingConfig{Type: chat.ThinkingEnabled, Speed: chat.SpeedFast}, nil
	case "slow":
		return &chat.ThinkingConfig{Type: chat.ThinkingEnabled, Speed: chat.SpeedSlow}, nil
	default:
		return nil, fmt.Errorf("unknown thinking mode %q", s)
	}
}
