// Package output provides styled terminal output helpers (success, error,
// warning, plan formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/plansync/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Underline(true)
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeConflict      = "conflict"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeRemoteError   = "remote_error"
	ErrCodeDatabaseError = "database_error"
	ErrCodeNoSession     = "no_session"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// FormatPhaseHeader renders a phase line, marking the active phase.
func FormatPhaseHeader(ph models.Phase, active bool) string {
	label := ph.Label
	if label == "" {
		label = ph.ID
	}
	line := fmt.Sprintf("%s  %s", titleStyle.Render(label), subtleStyle.Render(ph.ID))
	if active {
		line += "  " + activeStyle.Render("[active]")
	}
	return line
}

// FormatQualification renders one qualification with its string key and
// link, truncating the question to width cells when width > 0.
func FormatQualification(q models.Qualification, width int) string {
	question := q.Question
	if width > 0 {
		question = ansi.Truncate(question, width, "…")
	}
	parts := []string{question}
	if q.MoreInfoText != "" {
		parts = append(parts, subtleStyle.Render(q.MoreInfoText))
	}
	if q.MoreInfoURL != "" {
		parts = append(parts, linkStyle.Render(q.MoreInfoURL))
	}
	return strings.Join(parts, "  ")
}

// FormatPlan renders every phase of a plan with its qualifications.
func FormatPlan(phases []models.Phase, activePhase string, inherited bool, width int) string {
	var sb strings.Builder
	if inherited {
		sb.WriteString(subtleStyle.Render("(phases inherited from location)"))
		sb.WriteString("\n")
	}
	if len(phases) == 0 {
		sb.WriteString(subtleStyle.Render("no phases"))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, ph := range phases {
		sb.WriteString(FormatPhaseHeader(ph, ph.ID == activePhase))
		sb.WriteString("\n")
		for _, line := range BulletList(qualificationLines(ph.Qualifications, width-6), 2) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func qualificationLines(qs []models.Qualification, width int) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = FormatQualification(q, width)
	}
	return out
}

// Truncate shortens s to width terminal cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// ShortSHA shortens a blob or commit sha to 7 characters.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nDIRTY FILES:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
