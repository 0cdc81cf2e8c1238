package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"debug", "json", logrus.DebugLevel, true},
		{"WARN", "text", logrus.WarnLevel, false},
		{"nonsense", "", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, tt.format)
			if l.GetLevel() != tt.wantLevel {
				t.Errorf("level = %s; want %s", l.GetLevel(), tt.wantLevel)
			}
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("json formatter = %v; want %v", isJSON, tt.wantJSON)
			}
		})
	}
}

func TestComponent(t *testing.T) {
	entry := Component(New("info", "text"), "domain-service")
	if entry.Data["component"] != "domain-service" {
		t.Errorf("unexpected component field: %v", entry.Data["component"])
	}
}
