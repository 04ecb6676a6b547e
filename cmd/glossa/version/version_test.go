package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/flarebyte/glossa/internal/buildinfo"
)

func withBuildinfo(t *testing.T, v, commit, date string) {
	t.Helper()
	oldVersion, oldCommit, oldDate, oldJSON := buildinfo.Version, buildinfo.Commit, buildinfo.Date, flagJSON
	t.Cleanup(func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date, flagJSON = oldVersion, oldCommit, oldDate, oldJSON
	})
	buildinfo.Version, buildinfo.Commit, buildinfo.Date = v, commit, date
}

func TestVersionDefaultOutputStable(t *testing.T) {
	withBuildinfo(t, "", "", "")
	flagJSON = false
	var buf bytes.Buffer
	VersionCmd.SetOut(&buf)
	if err := VersionCmd.RunE(VersionCmd, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.String() != "glossa dev\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestVersionSummaryWithCommit(t *testing.T) {
	withBuildinfo(t, "1.2.3", "abcdef123456", "2026-10-01")
	flagJSON = false
	var buf bytes.Buffer
	VersionCmd.SetOut(&buf)
	if err := VersionCmd.RunE(VersionCmd, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "glossa 1.2.3 (commit=abcdef1, date=2026-10-01)\n"; buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestVersionJSON(t *testing.T) {
	withBuildinfo(t, "1.2.3", "", "")
	flagJSON = true
	var buf bytes.Buffer
	VersionCmd.SetOut(&buf)
	if err := VersionCmd.RunE(VersionCmd, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["version"] != "1.2.3" || got["go"] == "" {
		t.Fatalf("unexpected payload: %v", got)
	}
}
