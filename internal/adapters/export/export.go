// Package export renders roster snapshots into portable artifacts (CSV,
// JSON, human-readable tables) and archives them to blob storage.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"rostercore/pkg/domain"
)

// File is a rendered artifact ready to be written to disk or blob storage.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

const (
	// listSeparator joins relationship ids inside a single CSV cell.
	listSeparator = ";"
	// emptyCell marks an empty relationship list or unassigned instructor.
	emptyCell = "-"
)

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return emptyCell
	}
	return strings.Join(ids, listSeparator)
}

func instructorCell(id *string) string {
	if id == nil || *id == "" {
		return emptyCell
	}
	return *id
}

// CSVFiles renders the snapshot as one CSV file per entity kind, rows in
// insertion order.
func CSVFiles(snap domain.Snapshot) ([]File, error) {
	students, err := studentsCSV(snap)
	if err != nil {
		return nil, err
	}
	instructors, err := instructorsCSV(snap)
	if err != nil {
		return nil, err
	}
	courses, err := coursesCSV(snap)
	if err != nil {
		return nil, err
	}
	return []File{students, instructors, courses}, nil
}

func studentsCSV(snap domain.Snapshot) (File, error) {
	rows := [][]string{{"id", "name", "age", "email", "courses"}}
	for _, id := range snap.OrderedStudentIDs() {
		rec := snap.Students[id]
		rows = append(rows, []string{id, rec.Name, strconv.Itoa(rec.Age), rec.Email, joinIDs(rec.Courses)})
	}
	return renderCSV("students.csv", rows)
}

func instructorsCSV(snap domain.Snapshot) (File, error) {
	rows := [][]string{{"id", "name", "age", "email", "courses"}}
	for _, id := range snap.OrderedInstructorIDs() {
		rec := snap.Instructors[id]
		rows = append(rows, []string{id, rec.Name, strconv.Itoa(rec.Age), rec.Email, joinIDs(rec.Courses)})
	}
	return renderCSV("instructors.csv", rows)
}

func coursesCSV(snap domain.Snapshot) (File, error) {
	rows := [][]string{{"id", "name", "instructor", "students"}}
	for _, id := range snap.OrderedCourseIDs() {
		rec := snap.Courses[id]
		rows = append(rows, []string{id, rec.Name, instructorCell(rec.InstructorID), joinIDs(rec.Students)})
	}
	return renderCSV("courses.csv", rows)
}

func renderCSV(name string, rows [][]string) (File, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return File{}, fmt.Errorf("render %s: %w", name, err)
	}
	return File{Name: name, ContentType: "text/csv", Body: buf.Bytes()}, nil
}

// SnapshotJSON renders the full snapshot as indented JSON.
func SnapshotJSON(snap domain.Snapshot) (File, error) {
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("render snapshot json: %w", err)
	}
	return File{Name: "state.json", ContentType: "application/json", Body: append(body, '\n')}, nil
}

// RenderTables writes the roster to w as formatted tables, one per entity
// kind, rows in insertion order.
func RenderTables(w io.Writer, snap domain.Snapshot) {
	renderStudentsTable(w, snap)
	renderInstructorsTable(w, snap)
	renderCoursesTable(w, snap)
}

func renderStudentsTable(w io.Writer, snap domain.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Students")
	t.AppendHeader(table.Row{"ID", "Name", "Age", "Email", "Courses"})
	for _, id := range snap.OrderedStudentIDs() {
		rec := snap.Students[id]
		t.AppendRow(table.Row{id, rec.Name, rec.Age, rec.Email, joinIDs(rec.Courses)})
	}
	t.Render()
}

func renderInstructorsTable(w io.Writer, snap domain.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Instructors")
	t.AppendHeader(table.Row{"ID", "Name", "Age", "Email", "Courses"})
	for _, id := range snap.OrderedInstructorIDs() {
		rec := snap.Instructors[id]
		t.AppendRow(table.Row{id, rec.Name, rec.Age, rec.Email, joinIDs(rec.Courses)})
	}
	t.Render()
}

func renderCoursesTable(w io.Writer, snap domain.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Courses")
	t.AppendHeader(table.Row{"ID", "Name", "Instructor", "Students"})
	for _, id := range snap.OrderedCourseIDs() {
		rec := snap.Courses[id]
		t.AppendRow(table.Row{id, rec.Name, instructorCell(rec.InstructorID), joinIDs(rec.Students)})
	}
	t.Render()
}
