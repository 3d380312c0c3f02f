package ai

import (
	"errors"
	"strings"
)

// majorMarker is the severity prefix providers are instructed to emit on the
// command line of a high-impact fix.
const majorMarker = "MAJOR:"

// ErrMalformedResponse is returned when provider output violates the
// final-line contract. Malformed text is never executed.
var ErrMalformedResponse = errors.New("malformed provider response: no command on final line")

// Suggestion is a parsed remediation proposal.
type Suggestion struct {
	// Raw is the full provider response.
	Raw string
	// Diagnosis is everything before the command line.
	Diagnosis string
	// Command is the last non-empty line, stripped of the MAJOR: marker.
	Command string
	// IsMajor is true when the response carries the severity marker or the
	// command matches the dangerous-pattern set. Informational only: it is
	// surfaced in notifications and history, it does not gate execution.
	IsMajor bool
	// MajorReasons lists the matched danger-pattern messages, if any.
	MajorReasons []string
}

// ParseSuggestion extracts the command from raw provider output under the
// strict response contract: the last non-empty line is the command. An empty
// response or a response with no usable final line fails with
// ErrMalformedResponse rather than producing an empty command.
func ParseSuggestion(raw string, classifier *SeverityClassifier) (*Suggestion, error) {
	lines := strings.Split(raw, "\n")

	cmdIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			cmdIdx = i
			break
		}
	}
	if cmdIdx < 0 {
		return nil, ErrMalformedResponse
	}

	cmdLine := strings.TrimSpace(lines[cmdIdx])
	marked := strings.Contains(raw, majorMarker)
	command := strings.TrimSpace(strings.TrimPrefix(cmdLine, majorMarker))
	if command == "" {
		return nil, ErrMalformedResponse
	}

	dangerous := false
	var reasons []string
	if classifier != nil {
		dangerous, reasons = classifier.IsDangerous(command)
	}

	return &Suggestion{
		Raw:          raw,
		Diagnosis:    strings.TrimSpace(strings.Join(lines[:cmdIdx], "\n")),
		Command:      command,
		IsMajor:      marked || dangerous,
		MajorReasons: reasons,
	}, nil
}
