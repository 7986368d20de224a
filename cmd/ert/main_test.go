package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	body := fmt.Sprintf(`[workspace]
name = "test"
root = %q

[storage]
backend = "fs"
fs_root = %q

[transmit]
max_concurrency = 4

[logging]
level = "warn"
format = "console"
dir = %q
`, base, filepath.Join(base, "storage"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "config.toml")

	out, err := runCLI(t, target, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestExperimentLifecycle(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, configPath, "experiment", "init", "exp1", "--size", "3", "--parameter", "porosity")
	if err != nil {
		t.Fatalf("experiment init: %v", err)
	}
	requireContains(t, out, "Initialized experiment")

	if _, err := runCLI(t, configPath, "experiment", "init", "exp1", "--size", "3"); err == nil {
		t.Fatal("expected duplicate experiment init to fail")
	}

	out, err = runCLI(t, configPath, "experiment", "list")
	if err != nil {
		t.Fatalf("experiment list: %v", err)
	}
	requireContains(t, out, "exp1")

	if _, err := runCLI(t, configPath, "experiment", "delete", "exp1"); err == nil {
		t.Fatal("expected delete without --yes to fail")
	}
	if _, err := runCLI(t, configPath, "experiment", "delete", "exp1", "--yes"); err != nil {
		t.Fatalf("experiment delete: %v", err)
	}

	out, err = runCLI(t, configPath, "experiment", "list")
	if err != nil {
		t.Fatalf("experiment list after delete: %v", err)
	}
	requireContains(t, out, "No experiments registered")
}

func TestRecordLoadURLAndExport(t *testing.T) {
	configPath := writeCLIConfig(t)

	src := filepath.Join(t.TempDir(), "values.json")
	if err := os.WriteFile(src, []byte("[1.5, 2.5, 3.5]"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}

	out, err := runCLI(t, configPath, "record", "load", "observations", src, "--experiment", "exp1")
	if err != nil {
		t.Fatalf("record load: %v", err)
	}
	requireContains(t, out, "Transmitted record")

	out, err = runCLI(t, configPath, "record", "url", "observations", "--experiment", "exp1", "--member", "0")
	if err != nil {
		t.Fatalf("record url: %v", err)
	}
	requireContains(t, out, "file://")

	dest := filepath.Join(t.TempDir(), "out.json")
	if _, err := runCLI(t, configPath, "record", "export", "observations", dest, "--experiment", "exp1"); err != nil {
		t.Fatalf("record export: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	requireContains(t, string(data), "1.5")
}

func TestRecordSampleTransmitsEnsemble(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, configPath, "record", "sample", "porosity", "coarse_porosity",
		"--experiment", "exp1", "--size", "5", "--distribution", "uniform",
		"--min", "0.1", "--max", "0.4", "--seed", "42")
	if err != nil {
		t.Fatalf("record sample: %v", err)
	}
	requireContains(t, out, "5 member(s)")

	out, err = runCLI(t, configPath, "experiment", "records", "exp1")
	if err != nil {
		t.Fatalf("experiment records: %v", err)
	}
	requireContains(t, out, "coarse_porosity")
}

func TestMissingRecordURLFails(t *testing.T) {
	configPath := writeCLIConfig(t)

	if _, err := runCLI(t, configPath, "record", "url", "nope", "--experiment", "exp1", "--member", "0"); err == nil {
		t.Fatal("expected url resolution of untransmitted record to fail")
	}
}
