package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "test-version-1.0.0") {
		t.Errorf("expected version in output, got %q", buf.String())
	}
}

func TestSetVersion(t *testing.T) {
	originalVersion := version
	defer func() { version = originalVersion }()

	SetVersion("2.0.0")
	if version != "2.0.0" {
		t.Errorf("expected version 2.0.0, got %q", version)
	}

	// Empty values keep the current version.
	SetVersion("")
	if version != "2.0.0" {
		t.Errorf("expected version to stay 2.0.0, got %q", version)
	}
}
