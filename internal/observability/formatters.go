// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/document"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewLines is how many lines of an artifact are shown
	previewLines = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintArtifact outputs a preview of a stage artifact.
func (p *Printer) PrintArtifact(key, text string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > previewLines {
		truncated := len(lines) - previewLines
		lines = append(lines[:previewLines], fmt.Sprintf("... and %d more lines", truncated))
	}
	if text == "" {
		lines = []string{"(empty)"}
	}
	p.printBox(fmt.Sprintf("ARTIFACT: %s", strings.ToUpper(key)), strings.Join(lines, "\n"))
}

// PrintDocument outputs a human-readable summary of the assembled resume.
func (p *Printer) PrintDocument(doc *document.ResumeDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:    %s\n", doc.PersonalInfo.Name))
	sb.WriteString(fmt.Sprintf("Email:   %s\n", doc.PersonalInfo.Email))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Work experience entries: %d\n", len(doc.WorkExperience)))
	sb.WriteString(fmt.Sprintf("Personal projects:       %d\n", len(doc.PersonalProjects)))
	sb.WriteString(fmt.Sprintf("Education entries:       %d\n", len(doc.Education)))
	if len(doc.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(doc.Skills, ", ")))
	}
	if len(doc.Languages) > 0 {
		sb.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(doc.Languages, ", ")))
	}

	p.printBox("ASSEMBLED RESUME", strings.TrimRight(sb.String(), "\n"))
}
