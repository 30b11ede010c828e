package lm

import (
	"strings"
)

// CLIError is raised when the CLI process fails or produces an
// unexpected response. Its message embeds the captured stdout and stderr
// so the CLI's own diagnostics survive into logs and test output.
type CLIError struct {
	Message string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CLIError) Error() string {
	details := []string{e.Message}
	details = append(details, outputSection("stdout", e.Stdout))
	details = append(details, outputSection("stderr", e.Stderr))
	return strings.Join(details, "\n")
}

func (e *CLIError) Unwrap() error { return e.Err }

func outputSection(name, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return name + ": <empty>"
	}
	return name + ":\n" + content
}
