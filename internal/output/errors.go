package output

import (
	"fmt"

	"github.com/fatih/color"
)

// Process exit statuses
const (
	ExitSuccess      = 0
	ExitFailed       = 1
	ExitUsageError   = 2
	ExitUnauthorized = 3
	ExitConfigError  = 4
)

// CLIError carries what the user sees when a command fails and the exit
// status it ends with.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	return e.Summary
}

// FormatError writes e to stderr: the summary, then cause and suggestion
// when set.
func (p *Printer) FormatError(e *CLIError) {
	head := "[ERROR] " + e.Summary
	if p.useColors {
		head = p.paint("Error: "+e.Summary, color.FgRed, color.Bold)
	}
	lines := []string{head}
	if e.Detail != "" {
		lines = append(lines, "  Cause: "+e.Detail)
	}
	if e.Suggestion != "" {
		lines = append(lines, p.paint("  Suggestion: "+e.Suggestion, color.FgCyan))
	}
	for _, l := range lines {
		fmt.Fprintln(p.err, l)
	}
}
