// The main package for the querydesk executable.
package main

import (
	_ "time/tzdata"

	"github.com/JakeFAU/querydesk/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
