package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the roster",
		Long: `Case-insensitive substring search over ids, names and emails.
Students and instructors also match through the names and ids of their
related courses.`,
		Args: cobra.ExactArgs(1),
		Example: `  rostercore search ann
  rostercore search algorithms --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				results, err := svc.Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if env.outputFormat(cmd) == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}
				renderSearchResults(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}
	cmd.Flags().String("output", "", "output format: table|json")
	return cmd
}

func renderSearchResults(w io.Writer, results core.SearchResults) {
	if results.Empty() {
		_, _ = fmt.Fprintln(w, "(no matches)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "ID", "Name", "Details"})
	for _, s := range results.Students {
		t.AppendRow(table.Row{"student", s.StudentID, s.Name, s.Email})
	}
	for _, i := range results.Instructors {
		t.AppendRow(table.Row{"instructor", i.InstructorID, i.Name, i.Email})
	}
	for _, c := range results.Courses {
		details := ""
		if c.InstructorID != nil {
			details = "taught by " + *c.InstructorID
		}
		t.AppendRow(table.Row{"course", c.CourseID, c.Name, details})
	}
	t.Render()
	total := len(results.Students) + len(results.Instructors) + len(results.Courses)
	_, _ = fmt.Fprintf(w, "(%d %s)\n", total, pluralize("match", total))
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "ch") {
		return word + "es"
	}
	return word + "s"
}
