package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"default_interval=20", "background_color=white"})
	if err != nil {
		t.Fatalf("parsePairs failed: %v", err)
	}
	if pairs["default_interval"] != "20" || pairs["background_color"] != "white" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}

	// Values may themselves contain '='.
	pairs, err = parsePairs([]string{"api_key=abc=="})
	if err != nil {
		t.Fatalf("parsePairs failed: %v", err)
	}
	if pairs["api_key"] != "abc==" {
		t.Fatalf("value with '=' mangled: %q", pairs["api_key"])
	}

	for _, bad := range []string{"novalue", "=empty", " =x"} {
		if _, err := parsePairs([]string{bad}); err == nil {
			t.Errorf("parsePairs(%q) should fail", bad)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Setting", "Value"},
		[][]string{{"background_color", "black"}, {"default_interval", "8"}},
		nil,
	)
	if !strings.Contains(out, "background_color") || !strings.Contains(out, "Setting") {
		t.Fatalf("table missing content:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("empty header set must render nothing")
	}
}

func TestConfigPathCommand(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "path"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(buf.String(), "/etc/easel/config.toml") {
		t.Fatalf("expected search paths in output, got:\n%s", buf.String())
	}
}

func TestRootShowsHelp(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"config", "provider", "status"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("help missing %q:\n%s", sub, buf.String())
		}
	}
}
