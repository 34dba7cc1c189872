package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigInitDefaultPathSkipsLoad(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(env.configPath); err != nil {
		t.Fatalf("remove config: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "init"}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, env.configPath)
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[cache]")
	requireContains(t, out, "backend = ")
	requireContains(t, out, "sqlite")
	requireContains(t, out, env.cfg.Paths.CacheDir)
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := "[cache]\nbackend = \"redis\"\n"
	if err := os.WriteFile(env.configPath, []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected invalid backend to fail validation")
	}
}
