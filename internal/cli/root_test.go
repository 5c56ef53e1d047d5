package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetVersion(t *testing.T) {
	defer SetVersion(version, commit, date)

	SetVersion("1.0.0", "abc123", "2024-01-01")
	if version != "1.0.0" || commit != "abc123" || date != "2024-01-01" {
		t.Errorf("unexpected version info %q %q %q", version, commit, date)
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := run(t, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "max_zoom_factor = 10.0") {
		t.Errorf("expected default max zoom in TOML output, got:\n%s", out)
	}

	path := writeFile(t, "scroller.toml", "[scroller]\nmax_zoom_factor = 4.0\n")
	out, err = run(t, "--config", path, "config", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "max_zoom_factor: 4") {
		t.Errorf("expected overlaid max zoom in YAML output, got:\n%s", out)
	}
}

func TestConfigCommandErrors(t *testing.T) {
	if _, err := run(t, "config", "--format", "json"); err == nil {
		t.Error("expected unknown format to fail")
	}
	bad := writeFile(t, "bad.toml", "[scroller]\nbogus = 1\n")
	if _, err := run(t, "--config", bad, "config"); err == nil {
		t.Error("expected unknown key to fail")
	}
	if _, err := run(t, "config", "--file", bad); err == nil {
		t.Error("expected --file validation to fail")
	}
}

func TestSimulateAndReplay(t *testing.T) {
	script := writeFile(t, "scroll.lua", `
scroller.viewport(500, 500)
scroller.content(1000, 1000)
scroller.scroll_by(700, 0)
scroller.settle()
print("offsets", scroller.offsets())
`)
	tracePath := filepath.Join(t.TempDir(), "scroll.trace")

	out, err := run(t, "simulate", script, "--trace", tracePath, "--metrics")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, want := range []string{"offsets\t500\t0", "scroll-completed", "id=1 completed", "scroller_viewchange_submitted_total"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = run(t, "replay", tracePath, "--type", "completion")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.HasPrefix(out, "session ") {
		t.Errorf("expected session header, got:\n%s", out)
	}
	if !strings.Contains(out, "completion") || strings.Contains(out, "dispatch") {
		t.Errorf("expected only completion records, got:\n%s", out)
	}
}

func TestSimulateScriptError(t *testing.T) {
	script := writeFile(t, "bad.lua", `scroller.scroll_to(0/0, 0)`)
	_, err := run(t, "simulate", script)
	if err == nil || !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestReplayRejectsGarbage(t *testing.T) {
	path := writeFile(t, "garbage.trace", "not a trace")
	if _, err := run(t, "replay", path); err == nil {
		t.Error("expected garbage trace to fail")
	}
}
