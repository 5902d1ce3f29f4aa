package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		sessions, err := stack.Engine.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		view, err := stack.Engine.View(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		var errs []error
		for _, sessionID := range args {
			if err := stack.Engine.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Print a session's progress as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()

		view, err := stack.Engine.View(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		stages := stack.Engine.Stages(domain.SessionContext{ActorRole: view.Role})
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(stages, graph.OverlayFromView(view)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionGraphCmd)
}
