package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/tilequest/config"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := New(config.Log{Level: tt.level}).GetLevel(); got != tt.want {
			t.Errorf("level %q: expected %s, got %s", tt.level, tt.want, got)
		}
	}
}

func TestFormats(t *testing.T) {
	var buf bytes.Buffer
	NewWithOutput(config.Log{Format: "JSON"}, &buf).WithField("region", 3).Info("ready")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q", buf.String())
	}
	if entry["msg"] != "ready" || entry["region"] != float64(3) {
		t.Errorf("unexpected entry %v", entry)
	}

	buf.Reset()
	NewWithOutput(config.Log{Format: "text"}, &buf).Info("ready")
	if !strings.Contains(buf.String(), `msg=ready`) {
		t.Errorf("expected text output, got %q", buf.String())
	}
}
