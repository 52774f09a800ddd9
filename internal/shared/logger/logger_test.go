package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("bet-service", "prod", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("prod default must not log debug")
	}

	l, err = New("bet-service", "local", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("local default must log debug")
	}

	l, err = New("bet-service", "local", "warn")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("explicit warn level must drop info")
	}

	if _, err := New("bet-service", "prod", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
