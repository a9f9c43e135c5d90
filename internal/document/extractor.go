package document

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TextExtractor pulls plain text out of a source resume file so the
// pipeline can work on it.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// PandocExtractor reads .txt and .md files directly and converts .docx
// files to plain text with pandoc.
type PandocExtractor struct{}

func (PandocExtractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	case ".docx":
		if err := checkPandoc(); err != nil {
			return "", err
		}
		cmd := exec.Command("pandoc", "-f", "docx", "-t", "plain", path)
		output, err := cmd.Output()
		if err != nil {
			return "", fmt.Errorf("converting %s to text: %w", path, err)
		}
		return string(output), nil
	default:
		return "", fmt.Errorf("unsupported resume format %q (want .txt, .md or .docx)", ext)
	}
}
