// Package document assembles the final structured resume from generated
// JSON blobs and renders it to a word-processor file.
package document

import "fmt"

// AssemblyError represents a failure building a ResumeDocument from
// generated text.
type AssemblyError struct {
	Message string
	Cause   error
}

func (e *AssemblyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("assembly error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("assembly error: %s", e.Message)
}

func (e *AssemblyError) Unwrap() error {
	return e.Cause
}

// RenderError represents a failure writing the document to disk.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
