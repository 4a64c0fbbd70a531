package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phenomap.log")
	l := New(Config{Level: "debug", File: path})
	l.Debug("hello", zap.String("schema", "hfpef-phenotype/v1"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"schema":"hfpef-phenotype/v1"`) {
		t.Fatalf("unexpected log output: %s", data)
	}
}

func TestNewLevelFallback(t *testing.T) {
	l := New(Config{Level: "loud"})
	if !l.Core().Enabled(zapcore.InfoLevel) || l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected info level")
	}
}
