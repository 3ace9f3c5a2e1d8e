package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fileshare/internal/pkg/format"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	subtitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("1")).PaddingLeft(1)
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("2")).PaddingLeft(1)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("6"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	confirmStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
	emptyListStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true).Padding(1, 2)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Local Network File Share"))
	b.WriteByte('\n')
	b.WriteString(subtitleStyle.Render("Share files with colleagues on the same network"))
	b.WriteString("\n\n")

	if m.connected {
		b.WriteString(onlineStyle.Render("● Connected to " + m.server))
	} else {
		b.WriteString(offlineStyle.Render("○ Disconnected from " + m.server))
	}
	if m.loading {
		b.WriteString(dimStyle.Render("  refreshing…"))
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteByte('\n')
	}
	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteByte('\n')
	}

	if m.uploading {
		fmt.Fprintf(&b, "Uploading %s\n%s\n", m.uploadName, m.bar.ViewAs(m.uploadRatio))
	}

	switch m.mode {
	case modeUploadPath:
		b.WriteString(m.pathInput.View())
		b.WriteByte('\n')
	case modeConfirmDelete:
		b.WriteString(confirmStyle.Render(fmt.Sprintf(`Delete "%s"? (y/n)`, m.pending.OriginalName)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.listView())
	b.WriteString(helpStyle.Render(m.helpView()))
	return b.String()
}

func (m Model) listView() string {
	if len(m.files) == 0 {
		return emptyListStyle.Render("No files shared yet") + "\n"
	}

	now := m.now()
	nameWidth := max(20, m.width-32)

	var b strings.Builder
	fmt.Fprintf(&b, "Shared files (%d)\n", len(m.files))
	for i, f := range m.files {
		name := truncate(f.OriginalName, nameWidth)
		line := fmt.Sprintf(" %-*s %10s  %-10s ", nameWidth, name, format.FileSize(f.Size), format.RelativeTime(f.UploadDate, now))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) helpView() string {
	switch m.mode {
	case modeUploadPath:
		return "enter upload • esc cancel"
	case modeConfirmDelete:
		return "y delete • n cancel"
	}
	bindings := []string{}
	for _, k := range []struct{ keys, desc string }{
		{keys.Up.Help().Key + " " + keys.Down.Help().Key, "move"},
		{keys.Upload.Help().Key, keys.Upload.Help().Desc},
		{keys.Download.Help().Key, keys.Download.Help().Desc},
		{keys.Delete.Help().Key, keys.Delete.Help().Desc},
		{keys.Refresh.Help().Key, keys.Refresh.Help().Desc},
		{keys.Quit.Help().Key, keys.Quit.Help().Desc},
	} {
		bindings = append(bindings, k.keys+" "+k.desc)
	}
	return strings.Join(bindings, " • ")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
