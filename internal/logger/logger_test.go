package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		env      string
		override string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"prod", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"local", "", zapcore.DebugLevel, zapcore.Level(-2)},
		{EnvCLI, "", zapcore.WarnLevel, zapcore.InfoLevel},
		{EnvCLI, "debug", zapcore.DebugLevel, zapcore.Level(-2)},
	}

	for _, tc := range tests {
		t.Run(tc.env+"/"+tc.override, func(t *testing.T) {
			l, err := NewLogger(tc.env, tc.override)
			if err != nil {
				t.Fatal(err)
			}
			if !l.Core().Enabled(tc.enabled) {
				t.Errorf("%s should be enabled", tc.enabled)
			}
			if l.Core().Enabled(tc.disabled) {
				t.Errorf("%s should be disabled", tc.disabled)
			}
		})
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
	if _, err := NewLogger("local", "verbose"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to a no-op logger")
	}

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("logger not carried by context")
	}
}
