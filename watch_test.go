package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/defsindex/internal/config"
)

func TestRunWatchRejectsApply(t *testing.T) {
	t.Parallel()
	for _, arg := range []string{"--apply", "--diff"} {
		var stdout, stderr bytes.Buffer
		err := run([]string{"watch", arg, t.TempDir()}, nil, &stdout, &stderr)
		if err == nil || !strings.Contains(err.Error(), "does not support") {
			t.Errorf("%s: err = %v", arg, err)
		}
	}
}

func testSession(t *testing.T, dir string) *session {
	t.Helper()
	fs, opts := newFlagSet("test", io.Discard)
	if err := fs.Parse([]string{"--no-color", dir}); err != nil {
		t.Fatal(err)
	}
	s, err := newSession(fs, opts, io.Discard)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return s
}

func TestRefreshInvalidatesDocuments(t *testing.T) {
	t.Parallel()
	dir := createSpecsDir(t, cleanIndex)
	s := testSession(t, dir)

	var stdout bytes.Buffer
	s.checkAndReport(&stdout)
	if !strings.Contains(stdout.String(), "No errors") {
		t.Fatalf("first check:\n%s", stdout.String())
	}

	// Renaming the type leaves the index entry orphaned once the cached
	// document is dropped.
	writeTestFile(t, dir, "api_widgets.md", strings.ReplaceAll(widgetsSpec, "Widget struct", "Gadget struct"))
	s.refresh([]string{filepath.Join(dir, "api_widgets.md")})

	stdout.Reset()
	s.checkAndReport(&stdout)
	if !strings.Contains(stdout.String(), "`Widget` not found in any tech spec file") {
		t.Errorf("second check:\n%s", stdout.String())
	}
}

func TestRefreshReloadsConfig(t *testing.T) {
	t.Parallel()
	dir := createSpecsDir(t, cleanIndex)
	s := testSession(t, dir)

	writeTestFile(t, dir, config.FileName, "[placement]\nthreshold = 0.5\n")
	s.refresh([]string{filepath.Join(dir, config.FileName)})
	if s.cfg.Placement.Threshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", s.cfg.Placement.Threshold)
	}

	// A broken file keeps the previous configuration.
	writeTestFile(t, dir, config.FileName, "[placement]\nthreshold = \"high\"\n")
	s.refresh([]string{filepath.Join(dir, config.FileName)})
	if s.cfg.Placement.Threshold != 0.5 {
		t.Errorf("threshold = %v after broken reload, want 0.5", s.cfg.Placement.Threshold)
	}
}
