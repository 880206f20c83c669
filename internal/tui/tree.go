package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/wm"
)

var (
	monitorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	workspaceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// renderTree draws monitors and their descendants as an indented outline.
func renderTree(monitors []wm.ContainerDTO) []string {
	var lines []string
	for _, m := range monitors {
		lines = appendNode(lines, m, 0)
	}
	return lines
}

func appendNode(lines []string, c wm.ContainerDTO, depth int) []string {
	line := strings.Repeat("  ", depth) + describe(c)
	switch {
	case c.HasFocus:
		line = focusStyle.Render(line + " *")
	case c.Type == container.KindMonitor:
		line = monitorStyle.Render(line)
	case c.Type == container.KindWorkspace && c.IsDisplayed != nil && !*c.IsDisplayed:
		line = hiddenStyle.Render(line)
	case c.Type == container.KindWorkspace:
		line = workspaceStyle.Render(line)
	}
	lines = append(lines, line)
	for _, child := range c.Children {
		lines = appendNode(lines, child, depth+1)
	}
	return lines
}

func describe(c wm.ContainerDTO) string {
	switch c.Type {
	case container.KindMonitor:
		s := "monitor " + c.DeviceName
		if c.Bounds != nil {
			s += fmt.Sprintf(" %dx%d+%d+%d", c.Bounds.Width, c.Bounds.Height, c.Bounds.X, c.Bounds.Y)
		}
		return s
	case container.KindWorkspace:
		s := "workspace " + c.Name
		if c.DisplayName != "" && c.DisplayName != c.Name {
			s += " (" + c.DisplayName + ")"
		}
		if c.TilingDirection != nil {
			s += " " + c.TilingDirection.String()
		}
		return s
	case container.KindSplit:
		s := "split"
		if c.TilingDirection != nil {
			s += " " + c.TilingDirection.String()
		}
		return s + size(c)
	case container.KindTilingWindow, container.KindNonTilingWindow:
		s := "window"
		if c.NativeHandle != nil {
			s += fmt.Sprintf(" 0x%x", uint32(*c.NativeHandle))
		}
		if c.State != nil {
			s += " [" + c.State.Kind.String() + "]"
		}
		if c.ClassName != "" {
			s += " " + c.ClassName
		}
		if c.Title != "" {
			s += " " + fmt.Sprintf("%q", c.Title)
		}
		return s + size(c)
	default:
		return c.Type.String()
	}
}

func size(c wm.ContainerDTO) string {
	if c.TilingSize == nil {
		return ""
	}
	return fmt.Sprintf(" %.0f%%", *c.TilingSize*100)
}
