package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StyleConfig holds the colors of the text report.
type StyleConfig struct {
	Title   lipgloss.Color
	Header  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Failure lipgloss.Color
	Warning lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		Title:   lipgloss.Color("#8AB4F8"),
		Header:  lipgloss.Color("#E8EAED"),
		Muted:   lipgloss.Color("#9AA0A6"),
		Success: lipgloss.Color("#34A853"),
		Failure: lipgloss.Color("#EA4335"),
		Warning: lipgloss.Color("#FBBC04"),
	}
}

// render styles text. lipgloss.Style.Render has this signature.
type render func(strs ...string) string

func plain(strs ...string) string {
	return strings.Join(strs, " ")
}

// palette is the set of renderers used for one report.
type palette struct {
	title   render
	header  render
	muted   render
	success render
	failure render
	warning render
}

func plainPalette() palette {
	return palette{title: plain, header: plain, muted: plain, success: plain, failure: plain, warning: plain}
}

func (s *StyleConfig) palette() palette {
	return palette{
		title:   lipgloss.NewStyle().Foreground(s.Title).Bold(true).Render,
		header:  lipgloss.NewStyle().Foreground(s.Header).Bold(true).Render,
		muted:   lipgloss.NewStyle().Foreground(s.Muted).Render,
		success: lipgloss.NewStyle().Foreground(s.Success).Render,
		failure: lipgloss.NewStyle().Foreground(s.Failure).Render,
		warning: lipgloss.NewStyle().Foreground(s.Warning).Bold(true).Render,
	}
}
