// Package sources implements the source inspection commands.
package sources

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/licitawatch/internal/config"
	"github.com/jonesrussell/licitawatch/internal/domain"
	"github.com/jonesrussell/licitawatch/internal/sources"
)

// Command returns the sources command group. cfgFile points at the root
// command's persistent flag.
func Command(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect the configured sources",
	}
	cmd.AddCommand(listCommand(cfgFile), validateCommand(cfgFile))

	return cmd
}

func listCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := load(*cfgFile)
			if err != nil {
				return err
			}

			for _, src := range srcs {
				cmd.Printf("%-20s strategy=%-10s parser=%-14s %s\n",
					src.Name, src.Strategy, src.ParserID, src.EntryURL)
			}

			return nil
		},
	}
}

func validateCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the sources file without running the monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := load(*cfgFile)
			if err != nil {
				return err
			}

			cmd.Printf("sources file is valid (%d sources)\n", len(srcs))

			return nil
		},
	}
}

func load(cfgFile string) ([]domain.Source, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	srcs, err := sources.NewLoader(cfg.SourcesFile).LoadSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	return srcs, nil
}
