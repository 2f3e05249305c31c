package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesAndValidatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitconv.toml")

	msg, err := run([]string{"--output", path}, io.Discard)
	if err != nil || !strings.Contains(msg, path) {
		t.Fatalf("write: msg=%q err=%v", msg, err)
	}
	if _, err := run([]string{"--output", path}, io.Discard); err == nil {
		t.Fatalf("expected refusal to overwrite without --force")
	}
	if _, err := run([]string{"--output", path, "--force"}, io.Discard); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if msg, err := run([]string{"--validate", "--input", path}, io.Discard); err != nil || !strings.HasPrefix(msg, "Validated") {
		t.Fatalf("validate: msg=%q err=%v", msg, err)
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	if _, err := run([]string{"--kind", "ghost"}, io.Discard); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}
