package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	logger, err := New("", "")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug disabled")
	}
}

func TestNewConsoleDebug(t *testing.T) {
	logger, err := New("debug", "console")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug enabled")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}
