package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("scheduler")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("cycle finished", "durationMs", 12)

	out := buf.String()
	if !strings.Contains(out, `msg="cycle finished"`) {
		t.Fatalf("expected cycle message, got: %s", out)
	}
	if !strings.Contains(out, "component=scheduler") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "durationMs=12") {
		t.Fatalf("expected duration field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("persister")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestSwitchingFormatsRebindsHandler(t *testing.T) {
	logger := L("cycles")
	t.Cleanup(func() { Init("text", "info", nil) })

	var text, js bytes.Buffer
	Init("text", "info", &text)
	logger.Info("first")
	if err := Setup(Options{Format: "json", Level: "info", Output: &js}); err != nil {
		t.Fatalf("Setup json: %v", err)
	}
	logger.Info("second")
	Init("text", "info", &text)
	logger.Info("third")

	if !strings.Contains(js.String(), `"msg":"second"`) {
		t.Fatalf("json sink missing record: %s", js.String())
	}
	if !strings.Contains(text.String(), "msg=first") || !strings.Contains(text.String(), "msg=third") {
		t.Fatalf("text sink missing records: %s", text.String())
	}
	if strings.Contains(text.String(), "second") {
		t.Fatalf("json record leaked into text sink: %s", text.String())
	}
}

func TestJSONFormatWithMonitor(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "debug", &buf)

	WithMonitor(L("recorder"), "Display 1").Debug("frame unchanged")

	out := buf.String()
	if !strings.Contains(out, `"monitor":"Display 1"`) {
		t.Fatalf("expected monitor attr in json output, got: %s", out)
	}
	if !strings.Contains(out, `"component":"recorder"`) {
		t.Fatalf("expected component attr in json output, got: %s", out)
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "recorder.log")

	var buf bytes.Buffer
	if err := Setup(Options{Format: "text", Level: "info", Output: &buf, File: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() {
		Close()
		Init("text", "info", nil)
	})

	L("database").Info("database already exists")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "database already exists") {
		t.Fatalf("log file missing entry: %s", data)
	}
	if !strings.Contains(buf.String(), "database already exists") {
		t.Fatalf("primary output missing entry: %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil")
	}
	l := Discard()
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Fatal("FromContext did not return stored logger")
	}
}
