package output

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const minDescriptionWidth = 20

// TerminalWidth returns the width of stdout when it is a terminal, else
// $COLUMNS, else fallback.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return fallback
}

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

// descriptionRenderer returns the glamour renderer wrapping at width,
// building it on first use.
func descriptionRenderer(width int) (*glamour.TermRenderer, error) {
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	renderers[width] = r
	return r, nil
}

// RenderDescription renders a description.md body wrapped at width, with
// trailing blank lines removed. Blank bodies render as "".
func RenderDescription(body string, width int) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	width = max(width, minDescriptionWidth)
	r, err := descriptionRenderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(body)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// Description renders body for the terminal and falls back to the raw
// markdown when rendering fails.
func Description(body string) string {
	out, err := RenderDescription(body, TerminalWidth(80))
	if err != nil {
		return strings.TrimRight(body, "\n") + "\n"
	}
	return out
}
