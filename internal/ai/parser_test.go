package ai

import (
	"errors"
	"testing"
)

func TestParseSuggestion(t *testing.T) {
	classifier, err := NewSeverityClassifier()
	if err != nil {
		t.Fatalf("NewSeverityClassifier: %v", err)
	}

	tests := []struct {
		name          string
		raw           string
		wantCommand   string
		wantDiagnosis string
		wantMajor     bool
		wantErr       bool
	}{
		{
			name:          "diagnosis then command",
			raw:           "mount point missing\nsudo mount -a",
			wantCommand:   "sudo mount -a",
			wantDiagnosis: "mount point missing",
		},
		{
			name:        "command only",
			raw:         "systemctl restart cockpit.service",
			wantCommand: "systemctl restart cockpit.service",
		},
		{
			name:        "trailing blank lines ignored",
			raw:         "disk is full\nsudo mount -a\n\n  \n",
			wantCommand: "sudo mount -a",
		},
		{
			name:        "major marker stripped from command",
			raw:         "the service is wedged\nMAJOR: reboot",
			wantCommand: "reboot",
			wantMajor:   true,
		},
		{
			name:        "dangerous command without marker",
			raw:         "stale lock file\nrm -f /var/lock/subsys/cockpit",
			wantCommand: "rm -f /var/lock/subsys/cockpit",
			wantMajor:   true,
		},
		{
			name:        "benign command is not major",
			raw:         "mount missing\nsudo mount -a",
			wantCommand: "sudo mount -a",
			wantMajor:   false,
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			raw:     "  \n\t\n",
			wantErr: true,
		},
		{
			name:    "marker with no command",
			raw:     "diagnosis\nMAJOR:",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSuggestion(tt.raw, classifier)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSuggestion: %v", err)
			}
			if s.Command != tt.wantCommand {
				t.Errorf("command = %q, want %q", s.Command, tt.wantCommand)
			}
			if tt.wantDiagnosis != "" && s.Diagnosis != tt.wantDiagnosis {
				t.Errorf("diagnosis = %q, want %q", s.Diagnosis, tt.wantDiagnosis)
			}
			if s.IsMajor != tt.wantMajor {
				t.Errorf("isMajor = %v, want %v", s.IsMajor, tt.wantMajor)
			}
			if s.Raw != tt.raw {
				t.Errorf("raw not preserved")
			}
		})
	}
}

func TestParseSuggestionNilClassifier(t *testing.T) {
	s, err := ParseSuggestion("diagnosis\nrm -rf /tmp/x", nil)
	if err != nil {
		t.Fatalf("ParseSuggestion: %v", err)
	}
	// Without a classifier only the explicit marker can flag a suggestion.
	if s.IsMajor {
		t.Error("expected isMajor=false without classifier")
	}
}
