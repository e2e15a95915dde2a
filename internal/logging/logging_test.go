package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_HasComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "text"}, &buf)

	logger := New("students")
	logger.Info("hello")

	output := buf.String()
	if !strings.Contains(output, "component=students") {
		t.Errorf("expected component=students in output, got: %s", output)
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("expected 'hello' in output, got: %s", output)
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json"}, &buf)

	New("json-test").Info("json check")

	if !strings.Contains(buf.String(), `"level":"INFO"`) {
		t.Errorf("expected JSON level in output, got: %s", buf.String())
	}
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "text"}, &buf)

	New("filter").Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestDailyFile_RotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "app-2000-01-01.log")
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	d, err := OpenDailyFile(dir, 7)
	if err != nil {
		t.Fatalf("OpenDailyFile: %v", err)
	}
	defer d.Close()
	d.now = func() time.Time { return day }

	if _, err := d.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	day = day.Add(2 * time.Minute)
	if _, err := d.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "app-2026-03-01.log"))
	if err != nil || !strings.Contains(string(first), "first") {
		t.Fatalf("first day file: %q err %v", first, err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "app-2026-03-02.log"))
	if err != nil || !strings.Contains(string(second), "second") {
		t.Fatalf("second day file: %q err %v", second, err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("expected stale log to be removed, stat err %v", err)
	}
}
