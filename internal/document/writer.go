package document

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Writer renders an assembled document to a file on disk.
type Writer interface {
	Write(doc *ResumeDocument, outputPath string) error
}

// PandocWriter renders the document to .docx by converting its markdown
// form with the pandoc binary. Pandoc must be on PATH.
type PandocWriter struct{}

// Write renders doc to outputPath. Intermediate markdown goes through a
// temp file that is removed afterwards.
func (PandocWriter) Write(doc *ResumeDocument, outputPath string) error {
	if err := checkPandoc(); err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return &RenderError{Message: fmt.Sprintf("creating output directory %s", outputDir), Cause: err}
	}

	tmp, err := os.CreateTemp("", "resume-*.md")
	if err != nil {
		return &RenderError{Message: "creating markdown temp file", Cause: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(doc.Markdown()); err != nil {
		tmp.Close()
		return &RenderError{Message: "writing markdown temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &RenderError{Message: "closing markdown temp file", Cause: err}
	}

	cmd := exec.Command("pandoc", "-f", "markdown", "-t", "docx", "-o", outputPath, tmpPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &RenderError{Message: fmt.Sprintf("pandoc failed: %s", strings.TrimSpace(string(output))), Cause: err}
	}
	return nil
}

func checkPandoc() error {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return &RenderError{Message: "pandoc not found in PATH", Cause: err}
	}
	return nil
}

// MarkdownWriter writes the markdown form directly, for environments
// without pandoc and for tests.
type MarkdownWriter struct{}

func (MarkdownWriter) Write(doc *ResumeDocument, outputPath string) error {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return &RenderError{Message: fmt.Sprintf("creating output directory %s", outputDir), Cause: err}
	}
	if err := os.WriteFile(outputPath, []byte(doc.Markdown()), 0o600); err != nil {
		return &RenderError{Message: fmt.Sprintf("writing %s", outputPath), Cause: err}
	}
	return nil
}
