package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityDefaults(t *testing.T) {
	c, err := NewSeverityClassifier()
	require.NoError(t, err)

	tests := []struct {
		command   string
		dangerous bool
	}{
		{"rm -rf /data", true},
		{"sudo rm /etc/fstab", true},
		{"reboot", true},
		{"shutdown -h now", true},
		{"mkfs.ext4 /dev/sda1", true},
		{"dd if=/dev/zero of=/dev/sda", true},
		{"systemctl stop cockpit.service", true},
		{"sudo mount -a", false},
		{"systemctl restart cockpit.service", false},
		{"df -h", false},
		{"journalctl -u cockpit -n 50", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			dangerous, reasons := c.IsDangerous(tt.command)
			assert.Equal(t, tt.dangerous, dangerous)
			if dangerous {
				assert.NotEmpty(t, reasons)
			}
		})
	}
}

func TestLoadSeverityClassifier(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		c, err := LoadSeverityClassifier(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		dangerous, _ := c.IsDangerous("reboot")
		assert.True(t, dangerous)
	})

	t.Run("custom rules replace defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		rules := `rules:
  danger_patterns:
    - pattern: '\bdocker\s+system\s+prune\b'
      message: "bulk image removal"
`
		require.NoError(t, os.WriteFile(path, []byte(rules), 0644))

		c, err := LoadSeverityClassifier(path)
		require.NoError(t, err)

		dangerous, reasons := c.IsDangerous("docker system prune -af")
		assert.True(t, dangerous)
		assert.Contains(t, reasons, "bulk image removal")

		// Defaults are replaced wholesale, not merged.
		dangerous, _ = c.IsDangerous("reboot")
		assert.False(t, dangerous)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: ["), 0644))

		_, err := LoadSeverityClassifier(path)
		assert.Error(t, err)
	})

	t.Run("invalid regex is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		rules := `rules:
  danger_patterns:
    - pattern: '['
      message: "broken"
`
		require.NoError(t, os.WriteFile(path, []byte(rules), 0644))

		_, err := LoadSeverityClassifier(path)
		assert.Error(t, err)
	})
}
