// Package commands implements the rostercore CLI subcommands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rostercore/internal/adapters/export"
	"rostercore/internal/blob"
	"rostercore/internal/cli/config"
	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

// Env carries shared dependencies into commands. OpenService opens the
// configured store; the returned closer must be called when done.
type Env struct {
	Config      *config.Config
	OpenService func() (*core.Service, func() error, error)
}

// withService opens the service, runs fn and closes the backing store.
func (e *Env) withService(fn func(svc *core.Service) error) error {
	svc, closer, err := e.OpenService()
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()
	return fn(svc)
}

// blobSettings maps the configured blob options into blob store selection.
// Unset fields keep blob.OpenSettings' environment fallback.
func (e *Env) blobSettings() blob.Settings {
	if e.Config == nil {
		return blob.Settings{}
	}
	return blob.Settings{
		Driver: blob.Driver(e.Config.BlobDriver),
		FSRoot: e.Config.BlobFSRoot,
	}
}

// outputFormat resolves the effective output format for a command, letting a
// local --output flag override the configured default.
func (e *Env) outputFormat(cmd *cobra.Command) string {
	if flag := cmd.Flags().Lookup("output"); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	if e.Config != nil && e.Config.Output != "" {
		return e.Config.Output
	}
	return config.DefaultOutput
}

func renderSnapshot(w io.Writer, snap domain.Snapshot, format string) error {
	switch strings.ToLower(format) {
	case "json":
		file, err := export.SnapshotJSON(snap)
		if err != nil {
			return err
		}
		_, err = w.Write(file.Body)
		return err
	case "csv":
		files, err := export.CSVFiles(snap)
		if err != nil {
			return err
		}
		for _, file := range files {
			if _, err := fmt.Fprintf(w, "# %s\n", file.Name); err != nil {
				return err
			}
			if _, err := w.Write(file.Body); err != nil {
				return err
			}
		}
		return nil
	case "table", "":
		export.RenderTables(w, snap)
		return nil
	default:
		return fmt.Errorf("unknown output format %s", format)
	}
}
