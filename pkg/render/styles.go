package render

import "github.com/charmbracelet/lipgloss"

// Status glyphs.
const (
	GlyphPending = "○ "
	GlyphSuccess = "✓ "
	GlyphFailed  = "✗ "
)

// Tree connectors.
const (
	TreeBranch = "├── "
	TreeLast   = "└── "
	TreePipe   = "│   "
	TreeSpace  = "    "
)

// Colors.
var (
	Blue  = lipgloss.AdaptiveColor{Light: "#1D7AFC", Dark: "#579DFF"}
	Green = lipgloss.Color("#04B575")
	Red   = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	Dim   = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}

	SpinnerStyle     = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	RunningStyle     = lipgloss.NewStyle().Foreground(Blue)
	SuccessMarkStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	SuccessStyle     = lipgloss.NewStyle().Foreground(Green)
	FailedMarkStyle  = lipgloss.NewStyle().Foreground(Red).Bold(true)
	FailedStyle      = lipgloss.NewStyle().Foreground(Red)
	ErrorStyle       = lipgloss.NewStyle().Foreground(Red)
	DimStyle         = lipgloss.NewStyle().Foreground(Dim)
)
