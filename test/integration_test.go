//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("HOTBIND_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "HOTBIND_TEST_BIN not set; build hotbind and point it at the binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// runHotbind runs the binary with a private log directory and returns its
// combined output and exit code.
func runHotbind(t *testing.T, env []string, args ...string) (logDir, out string, code int) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"--logpath", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Env = append(os.Environ(), env...)

	b, err := cmd.CombinedOutput()
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("hotbind did not run: %v", err)
	}
	return logDir, string(b), code
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	_, out, code := runHotbind(t, nil, "version")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, out)
	}
	if !strings.HasPrefix(out, "hotbind ") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestParse(t *testing.T) {
	_, out, code := runHotbind(t, nil, "parse", "M+ctrl+shift", "alt+ctrl+shift")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, out)
	}
	for _, want := range []string{"shift+ctrl+M", "shift+alt+ctrl"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseRejectsTwoKeys(t *testing.T) {
	_, out, code := runHotbind(t, nil, "parse", "ctrl+a+b")
	if code == 0 {
		t.Fatalf("expected failure, got: %s", out)
	}
	if !strings.Contains(out, "more than one key") && !strings.Contains(out, "rejected") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "[[bindings]]\nshortcut = \"ctrl+m\"\nid = 1\n[[bindings]]\nshortcut = \"alt+k\"\nid = 1\n")

	_, out, code := runHotbind(t, nil, "--config", cfg, "run")

	if code == 0 {
		t.Fatalf("expected failure, got: %s", out)
	}
	if !strings.Contains(out, "already used") {
		t.Errorf("expected duplicate id error, got: %s", out)
	}
}

func TestDoctorWritesDiagnostics(t *testing.T) {
	cfg := writeConfig(t, "raw_hook = \"evdev\"\n")
	env := []string{"WAYLAND_DISPLAY=", "DISPLAY=", "HOTBIND_LOG_LEVEL=debug"}

	logDir, out, _ := runHotbind(t, env, "--config", cfg, "doctor", "--timeout", "200ms")

	if !strings.Contains(out, "[1/6] Session") {
		t.Errorf("doctor output missing session check:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(logDir, "diagnostics_log.txt")); err != nil {
		t.Errorf("diagnostics_log.txt not created: %v", err)
	}
}
