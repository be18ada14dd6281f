package cmd

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List catalog models",
	Long:  `List the providers and models of the catalog and whether your settings make them usable.`,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().Bool("free", false, "only list free models")
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	settings := cfg.Settings(registry)

	shown := registry
	if free, _ := cmd.Flags().GetBool("free"); free {
		shown = registry.FreeOnly()
	}

	available := color.New(color.FgGreen).SprintFunc()
	unavailable := color.New(color.FgHiBlack).SprintFunc()

	for _, p := range shown.List() {
		header := p.Name
		if p.AllModelsFree() {
			header += " (free)"
		}
		color.New(color.Bold).Printf("%s [%s]\n", header, p.ID)

		ids := make([]string, 0, len(p.Models))
		for id := range p.Models {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			m := p.Models[id]
			line := fmt.Sprintf("  %-32s %-28s ctx=%-8d %s", id, m.Name, m.ContextLimit(), priceTag(m))
			if settings.IsModelAvailable(registry, p.ID, id) {
				fmt.Println(available(line))
			} else {
				fmt.Println(unavailable(line))
			}
		}
	}

	return nil
}

func priceTag(m catalog.Model) string {
	if m.IsFree() {
		return "free"
	}
	return fmt.Sprintf("$%.2f/$%.2f per M", m.Cost.Input, m.Cost.Output)
}
