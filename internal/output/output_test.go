package output

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/marcus/plansync/internal/models"
	"golang.org/x/term"
)

func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{time.Minute, "1m ago"},
		{59 * time.Minute, "59m ago"},
		{2 * time.Hour, "2h ago"},
		{3 * 24 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeAgo(time.Now().Add(-tt.ago)); got != tt.want {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	old := time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC)
	if got := FormatTimeAgo(old); got != "2021-02-03" {
		t.Errorf("old date = %q", got)
	}
}

func TestShortSHA(t *testing.T) {
	if got := ShortSHA("abcdef0123456"); got != "abcdef0" {
		t.Errorf("got %q", got)
	}
	if got := ShortSHA("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestFormatQualification(t *testing.T) {
	q := models.Qualification{Question: "healthcare workers", MoreInfoText: "cdc/wa/hcw", MoreInfoURL: "https://wa.test"}
	got := FormatQualification(q, 0)
	for _, want := range []string{"healthcare workers", "cdc/wa/hcw", "https://wa.test"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	short := FormatQualification(models.Qualification{Question: "a very long question indeed"}, 8)
	if !strings.HasSuffix(short, "…") || strings.Contains(short, "indeed") {
		t.Errorf("truncated = %q", short)
	}
}

func TestFormatPlan(t *testing.T) {
	phases := []models.Phase{
		{ID: "phase_1a", Label: "Phase 1A", Qualifications: []models.Qualification{{Question: "teachers"}}},
		{ID: "phase_1b"},
	}
	got := FormatPlan(phases, "phase_1a", true, 0)
	if !strings.Contains(got, "inherited") || !strings.Contains(got, "[active]") {
		t.Errorf("plan = %q", got)
	}
	if !strings.Contains(got, "  - teachers") {
		t.Errorf("qualification missing: %q", got)
	}
	if strings.Count(got, "[active]") != 1 {
		t.Errorf("active marker count: %q", got)
	}
	if got := FormatPlan(nil, "", false, 0); !strings.Contains(got, "no phases") {
		t.Errorf("empty plan = %q", got)
	}
}

func TestIndentAndBullets(t *testing.T) {
	if got := IndentString("a\nb", 2); got != "  a\n  b" {
		t.Errorf("IndentString = %q", got)
	}
	if got := IndentString("", 2); got != "" {
		t.Errorf("IndentString empty = %q", got)
	}
	got := BulletList([]string{"x", "y"}, 1)
	if len(got) != 2 || got[0] != " - x" || got[1] != " - y" {
		t.Errorf("BulletList = %q", got)
	}
	if got := SectionHeader("dirty files"); got != "\nDIRTY FILES:\n" {
		t.Errorf("SectionHeader = %q", got)
	}
}

func TestRenderDescription(t *testing.T) {
	out, err := RenderDescription("   \n", 40)
	if err != nil || out != "" {
		t.Errorf("blank = %q, %v", out, err)
	}

	out, err = RenderDescription("Walk-ins **welcome** at every site.", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "welcome") || !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
		t.Errorf("rendered = %q", out)
	}
}

func TestTerminalWidthFallsBackToColumns(t *testing.T) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("stdout is a terminal")
	}
	t.Setenv("COLUMNS", "132")
	if w := TerminalWidth(80); w != 132 {
		t.Errorf("width = %d, want 132", w)
	}
	t.Setenv("COLUMNS", "wide")
	if w := TerminalWidth(64); w != 64 {
		t.Errorf("width = %d, want 64", w)
	}
}
