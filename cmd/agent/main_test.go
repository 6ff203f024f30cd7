package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Guliveer/pcstatus/internal/config"
)

func TestWriteConfigFlag_SavesResolvedConfig(t *testing.T) {
	for _, key := range []string{"PSS_SERVER_URL", "PSS_MACHINE_ID", "PSS_MONITOR_TYPE", "PSS_TARGET_NAMES", "PSS_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("PSS_AGENT_TOKEN", "env-token")

	dir := t.TempDir()
	out := filepath.Join(dir, "provisioned", "agent.yaml")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--url", "https://status.example.com",
		"--write-config", out,
	})
	t.Cleanup(func() {
		writeConfig, cli = "", config.CLIOverrides{}
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), out) {
		t.Errorf("output = %q, want it to name %s", stdout.String(), out)
	}

	t.Setenv("PSS_AGENT_TOKEN", "")
	saved, err := config.LoadAgent(out, config.CLIOverrides{})
	if err != nil {
		t.Fatalf("LoadAgent() error = %v", err)
	}
	if saved.Server.URL != "https://status.example.com" {
		t.Errorf("URL = %q, want the flag value", saved.Server.URL)
	}
	if saved.Server.AgentToken != "env-token" {
		t.Errorf("AgentToken = %q, want the environment value", saved.Server.AgentToken)
	}
	if saved.Collection.Interval.Duration != config.DefaultAgentConfig().Collection.Interval.Duration {
		t.Errorf("Interval = %v, want default", saved.Collection.Interval)
	}
}

func TestWriteConfigFlag_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("PSS_AGENT_TOKEN", "")
	t.Setenv("PSS_SERVER_URL", "")

	dir := t.TempDir()
	out := filepath.Join(dir, "agent.yaml")
	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--write-config", out,
	})
	t.Cleanup(func() {
		writeConfig, cli = "", config.CLIOverrides{}
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Execute() should fail without an agent token")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("config file should not be written, stat error = %v", err)
	}
}
