package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/clerky/igdm/internal/view"
)

// Instagram-ish palette, adapted to stay readable on light and dark
// terminal backgrounds.
var (
	igTextColor = lipgloss.AdaptiveColor{Light: "#262626", Dark: "#fafafa"}
	igMuted     = lipgloss.AdaptiveColor{Light: "#737373", Dark: "#a8a8a8"}
	// Borders must remain visible on light terminals.
	igBorder  = lipgloss.AdaptiveColor{Light: "#737373", Dark: "#dbdbdb"}
	igAccent  = lipgloss.AdaptiveColor{Light: "#c13584", Dark: "#e1306c"}
	igSuccess = lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#58c322"}
	igDanger  = lipgloss.AdaptiveColor{Light: "#a32138", Dark: "#ed4956"}
)

func faintIfDark(s lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return s.Faint(true)
	}
	return s
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(igTextColor)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(igMuted)
}

// cardStyle frames an account or message. The active card gets an accent
// left border; the rest keep a hidden one so widths line up.
func cardStyle(active bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Foreground(igTextColor).
		Padding(0, 1).
		MarginBottom(1)
	if active {
		return s.Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(igAccent).
			Bold(true)
	}
	return s.Border(lipgloss.HiddenBorder(), false, false, false, true)
}

func badgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(igSuccess).Bold(true)
}

func paneStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		AlignVertical(lipgloss.Top).
		Align(lipgloss.Left)
	if focused {
		return s.BorderForeground(igAccent)
	}
	return s.BorderForeground(igBorder)
}

func noticeColor(k view.NoticeKind) lipgloss.TerminalColor {
	switch k {
	case view.NoticeSuccess:
		return igSuccess
	case view.NoticeFailure:
		return igDanger
	default:
		return igAccent
	}
}

func footerStyle() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(igMuted))
}
