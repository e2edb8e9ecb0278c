package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dealgrid/agentgate/pkg/registry"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	Long:  `List every registered tool with its risk level and approval requirement.`,
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	reg, err := registry.New()
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	defs := reg.All()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	for _, def := range defs {
		marker := "-"
		if def.RequiresApproval {
			marker = "approval"
		}
		if def.ExternalImpact {
			marker = "approval+external"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-22s %-9s %-18s %s\n", def.Name, def.Risk, marker, def.Description)
	}

	return nil
}
