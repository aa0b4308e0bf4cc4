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
	sourcePath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("MAILVET_NTFY_TOPIC", "")

	sourcePath := filepath.Join(base, "emails.csv")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base, sourcePath)

	return &cliTestEnv{
		configPath: configPath,
		sourcePath: sourcePath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, base, sourcePath string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
workspace_dir = %q
log_dir = %q

[source]
kind = "csv"
path = %q

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "workspace"), filepath.Join(base, "logs"), sourcePath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
