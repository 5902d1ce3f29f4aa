package main

import (
	"fmt"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Print the stages a role goes through",
	Long:  `Prints the applicable stages for a role as YAML, or as a Mermaid flowchart with --format mermaid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		format, _ := cmd.Flags().GetString("format")
		sc := domain.SessionContext{ActorRole: domain.Role(role)}
		if !sc.ActorRole.Valid() {
			return fmt.Errorf("unsupported role %q", role)
		}

		eng := onboard.New()
		defer eng.Close()
		stages := eng.Stages(sc)

		switch format {
		case "yaml":
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(stages); err != nil {
				return fmt.Errorf("failed to encode stages: %w", err)
			}
			return enc.Close()
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(stages, nil))
			return nil
		default:
			return fmt.Errorf("unknown format %q. Supported: yaml, mermaid", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
	stagesCmd.Flags().String("role", string(domain.RolePlatformAdmin), "Actor role")
	stagesCmd.Flags().String("format", "yaml", "Output format: yaml or mermaid")
}
