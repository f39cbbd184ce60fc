package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rostercore/internal/adapters/export"
	"rostercore/internal/blob"
	"rostercore/internal/core"
)

// NewExportCommand creates the export command. By default it writes the CSV
// files and state.json into a directory; with --archive the bundle goes to
// the configured blob store instead.
func NewExportCommand(env *Env) *cobra.Command {
	var (
		dir     string
		archive bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the roster as CSV and JSON artifacts",
		Example: `  # Write students.csv, instructors.csv, courses.csv and state.json
  rostercore export --dir ./out

  # Archive the bundle to the configured blob store
  rostercore export --archive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withService(func(svc *core.Service) error {
				snap := svc.ExportState(cmd.Context())
				if archive {
					store, err := blob.OpenSettings(cmd.Context(), env.blobSettings())
					if err != nil {
						return err
					}
					result, err := export.NewArchiver(store, nil).Archive(cmd.Context(), snap)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived %d artifacts under %s\n", len(result.Artifacts), result.Prefix)
					return nil
				}

				files, err := export.CSVFiles(snap)
				if err != nil {
					return err
				}
				stateFile, err := export.SnapshotJSON(snap)
				if err != nil {
					return err
				}
				files = append(files, stateFile)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				for _, file := range files {
					path := filepath.Join(dir, file.Name)
					if err := os.WriteFile(path, file.Body, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", path, err)
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files to %s\n", len(files), dir)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory for exported files")
	cmd.Flags().BoolVar(&archive, "archive", false, "store the bundle in the configured blob store")
	return cmd
}
