package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Infof("built index %s", "cities")

	if logs.Len() != 1 {
		t.Fatalf("logged entries got: %d, expected: 1", logs.Len())
	}
	if msg := logs.All()[0].Message; msg != "built index cities" {
		t.Errorf("message got: %q, expected: %q", msg, "built index cities")
	}
	if FromContext(context.Background()) == nil {
		t.Errorf("a context without a logger must yield the default logger")
	}
}

func TestLevelToZap(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		level    string
		expected zapcore.Level
	}{
		{name: "debug", level: "debug", expected: zapcore.DebugLevel},
		{name: "upper", level: "ERROR", expected: zapcore.ErrorLevel},
		{name: "unknown", level: "loud", expected: zapcore.InfoLevel},
		{name: "empty", level: "", expected: zapcore.InfoLevel},
	}
	for _, test := range tests {
		if got := levelToZap(test.level); got != test.expected {
			t.Errorf("%s: level got: %v, expected: %v", test.name, got, test.expected)
		}
	}
}
