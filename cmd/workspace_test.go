package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/syncconfig"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		loc     string
		region  string
		wantErr bool
	}{
		{"ca", "ca", "", false},
		{"CA", "ca", "", false},
		{"ca/la", "ca", "la", false},
		{"/ca/la/", "ca", "la", false},
		{"ca/", "ca", "", false},
		{"", "", "", true},
		{"/", "", "", true},
		{"ca//la", "", "", true},
		{"ca/la/x", "", "", true},
	}
	for _, tt := range tests {
		loc, region, err := parseTarget(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseTarget(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTarget(%q): %v", tt.in, err)
			continue
		}
		if loc != tt.loc || region != tt.region {
			t.Errorf("parseTarget(%q) = %q, %q; want %q, %q", tt.in, loc, region, tt.loc, tt.region)
		}
	}
}

func TestDescribeAction(t *testing.T) {
	t.Setenv("COLUMNS", "200")

	a := edits.Action{Op: edits.OpSetString, Location: "ca", Region: "la", Phase: "1a", Question: "q1", Text: "hi"}
	want := `set-string ca/la "1a" "q1" "hi"`
	if got := describeAction(a); got != want {
		t.Errorf("describeAction = %q, want %q", got, want)
	}

	a = edits.Action{Op: edits.OpAddLocation, ID: "ca", Name: "California"}
	want = `add-location "ca" "California"`
	if got := describeAction(a); got != want {
		t.Errorf("describeAction = %q, want %q", got, want)
	}
}

func TestFailureKind(t *testing.T) {
	conflict := &ghclient.WriteConflictError{Path: "a.csv", SHA: "abc", Err: &ghclient.RequestError{Op: "update", Status: 409}}
	tests := []struct {
		err  error
		want string
	}{
		{conflict, output.ErrCodeConflict},
		{fmt.Errorf("write: %w", conflict), output.ErrCodeConflict},
		{&ghclient.RequestError{Op: "update", Status: 401}, output.ErrCodeUnauthorized},
		{&ghclient.RequestError{Op: "update", Status: 403}, output.ErrCodeUnauthorized},
		{&ghclient.RequestError{Op: "update", Status: 500}, output.ErrCodeRemoteError},
		{&db.LockTimeoutError{Op: "record action"}, output.ErrCodeDatabaseError},
		{errors.New("boom"), output.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		if got := failureKind(tt.err); got != tt.want {
			t.Errorf("failureKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTargetAction(t *testing.T) {
	a, err := targetAction(edits.OpAddPhase, "TX/Harris")
	if err != nil {
		t.Fatal(err)
	}
	if a.Op != edits.OpAddPhase || a.Location != "tx" || a.Region != "harris" {
		t.Errorf("targetAction = %+v", a)
	}
	if _, err := targetAction(edits.OpAddPhase, ""); err == nil {
		t.Error("expected error for empty target")
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := &syncconfig.Config{}
	if err := setConfigValue(cfg, "repo", "org/plans"); err != nil {
		t.Fatal(err)
	}
	if cfg.RepoOwner != "org" || cfg.RepoName != "plans" {
		t.Errorf("repo = %s/%s", cfg.RepoOwner, cfg.RepoName)
	}
	if err := setConfigValue(cfg, "data_root", "/packages/plans/data/"); err != nil {
		t.Fatal(err)
	}
	if cfg.DataRoot != "packages/plans/data" {
		t.Errorf("data_root = %q", cfg.DataRoot)
	}
	if err := setConfigValue(cfg, "language", "ES-US"); err != nil {
		t.Fatal(err)
	}
	if cfg.Language != "es-us" {
		t.Errorf("language = %q", cfg.Language)
	}
	if err := setConfigValue(cfg, "fetch_concurrency", "4"); err != nil {
		t.Fatal(err)
	}
	if cfg.FetchConcurrency != 4 {
		t.Errorf("fetch_concurrency = %d", cfg.FetchConcurrency)
	}

	for _, bad := range [][2]string{
		{"repo", "plans"},
		{"repo", "org/plans/x"},
		{"language", "xx-yy"},
		{"fetch_concurrency", "0"},
		{"fetch_concurrency", "many"},
	} {
		if err := setConfigValue(cfg, bad[0], bad[1]); err == nil {
			t.Errorf("setConfigValue(%q, %q): expected error", bad[0], bad[1])
		}
	}
}

func TestSettingValue(t *testing.T) {
	s := &syncconfig.Settings{RepoOwner: "org", RepoName: "plans", FetchConcurrency: 8}
	if got := settingValue(s, "repo"); got != "org/plans" {
		t.Errorf("repo = %q", got)
	}
	if got := settingValue(s, "fetch_concurrency"); got != "8" {
		t.Errorf("fetch_concurrency = %q", got)
	}
	if got := settingValue(&syncconfig.Settings{}, "repo"); got != "" {
		t.Errorf("empty repo = %q", got)
	}
	if !isValidConfigKey("base_branch") || isValidConfigKey("token") {
		t.Error("isValidConfigKey mismatch")
	}
}
