// Command rostercore manages a roster of students, instructors and courses.
package main

import "rostercore/internal/cli"

func main() {
	cli.Execute()
}
