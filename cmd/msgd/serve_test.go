package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestServeCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "API server") {
		t.Errorf("expected help to mention 'API server', got: %s", out)
	}
	if !strings.Contains(out, "--port") {
		t.Errorf("expected help to mention '--port' flag, got: %s", out)
	}
	if !strings.Contains(out, "--config") {
		t.Errorf("expected help to mention '--config' flag, got: %s", out)
	}
}

func TestServeCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--config", "/nonexistent/msgd.yaml"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}

func TestServeCmd_DefaultConfigPath(t *testing.T) {
	cmd := newServeCmd()
	flag := cmd.Flags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not found")
	}
	if flag.DefValue != "msgd.yaml" {
		t.Errorf("default config = %q, want %q", flag.DefValue, "msgd.yaml")
	}
}
