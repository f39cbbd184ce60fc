package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rostercore/internal/adapters/export"
	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

// NewSaveCommand creates the save command.
func NewSaveCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "save <file>",
		Short:   "Save the roster to a JSON file",
		Args:    cobra.ExactArgs(1),
		Example: `  rostercore save roster.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				file, err := export.SnapshotJSON(svc.ExportState(cmd.Context()))
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[0], file.Body, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved roster to %s\n", args[0])
				return nil
			})
		},
	}
}

// NewLoadCommand creates the load command. Loading replaces the current
// roster; references to missing entities in the file are dropped rather than
// rejected.
func NewLoadCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load the roster from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var snap domain.Snapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			return env.withService(func(svc *core.Service) error {
				if err := svc.ImportState(cmd.Context(), snap); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded roster from %s\n", args[0])
				return nil
			})
		},
	}
}
