package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
output_dir = %q
work_dir = %q
log_dir = %q

[cache]
enabled = true
dir = %q
expiry_hours = 24

[history]
enabled = true
path = %q

[logging]
format = "console"
level = "error"
`,
		filepath.Join(base, "out"),
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "cache"),
		filepath.Join(base, "history.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func trackDir(t *testing.T, base, name string, files ...string) string {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}

func TestCLIMixDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	first := trackDir(t, env.baseDir, "first", "a.mp3", "b.mp3", "c.mp3")
	second := trackDir(t, env.baseDir, "second", "x.mp3", "y.mp3")

	out, _, err := runCLI(t, []string{"mix", "Preview", first, second, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("mix --dry-run: %v", err)
	}
	requireContains(t, out, "Local Directory")
	requireContains(t, out, "would produce 3 audio track(s)")

	// Nothing may be written during a dry run.
	if _, err := os.Stat(filepath.Join(env.baseDir, "out")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output root: %v", err)
	}
}

func TestCLIMixRejectsMissingArguments(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"mix", "OnlyAlbum"}, env.configPath); err == nil {
		t.Fatal("mix without sources must fail")
	}
}

func TestCLIMixRejectsHalfWindow(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := trackDir(t, env.baseDir, "src", "a.mp3")

	_, _, err := runCLI(t, []string{"mix", "Album", dir, "--long-max", "3", "--dry-run"}, env.configPath)
	if err == nil {
		t.Fatal("--long-max without --long-cutoff must fail")
	}
}

func TestCLICacheStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries: 0")
}

func TestCLICacheClearNeedsForce(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath); err == nil {
		t.Fatal("cache clear without --force must fail")
	}
	out, _, err := runCLI(t, []string{"cache", "clear", "--force"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear --force: %v", err)
	}
	requireContains(t, out, "Removed 0")
}

func TestCLIRunsEmptyLedger(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No recorded runs")
}
