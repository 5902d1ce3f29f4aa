package main

import (
	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the guided setup in the terminal",
	Long: `Starts (or resumes, with --session) a guided setup conversation on the terminal.
Progress is kept in the configured store, so a file or redis store lets you
leave and come back later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ChatOptions{}
		role, _ := cmd.Flags().GetString("role")
		opts.Role = domain.Role(role)
		opts.OrganizationID, _ = cmd.Flags().GetString("org")
		opts.UserID, _ = cmd.Flags().GetString("user")
		opts.Token, _ = cmd.Flags().GetString("token")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Plain, _ = cmd.Flags().GetBool("plain")

		// Engine logs would interleave with the conversation.
		if debug, _ := cmd.Flags().GetBool("debug"); !debug {
			logger = logging.NewNop()
		}

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		return cli.RunChat(cmd.Context(), stack, opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("role", string(domain.RoleOrgAdmin), "Actor role: platform_admin or org_admin")
	chatCmd.Flags().String("org", "", "Organization ID")
	chatCmd.Flags().String("user", "", "User ID, recorded as the creator of imports")
	chatCmd.Flags().String("token", "", "API token for the backend")
	chatCmd.Flags().StringP("session", "s", "", "Session ID to start or resume")
	chatCmd.Flags().Bool("plain", false, "Disable banner and markdown rendering")
}
