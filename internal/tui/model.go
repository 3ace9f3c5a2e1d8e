// Package tui is the terminal rendition of the file sharing client.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fileshare/internal/client"
)

const (
	msgCannotConnect  = "Cannot connect to server. Make sure backend is running."
	msgLoadFailed     = "Failed to load files"
	msgUploadFailed   = "Failed to upload file"
	msgDownloadFailed = "Failed to download"
	msgDeleteFailed   = "Failed to delete"
)

type mode int

const (
	modeBrowse mode = iota
	modeUploadPath
	modeConfirmDelete
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Upload   key.Binding
	Download key.Binding
	Delete   key.Binding
	Refresh  key.Binding
	Quit     key.Binding
	Yes      key.Binding
	No       key.Binding
	Submit   key.Binding
	Cancel   key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
	Download: key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("enter/d", "download")),
	Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Yes:      key.NewBinding(key.WithKeys("y", "Y")),
	No:       key.NewBinding(key.WithKeys("n", "N", "esc")),
	Submit:   key.NewBinding(key.WithKeys("enter")),
	Cancel:   key.NewBinding(key.WithKeys("esc")),
}

// Model is the bubbletea model for the file sharing client.
type Model struct {
	ctx         context.Context
	gw          Gateway
	server      string
	downloadDir string
	now         func() time.Time

	// Listing
	files     []client.File
	cursor    int
	loading   bool
	connected bool

	// Upload
	uploading   bool
	uploadName  string
	uploadRatio float64
	uploadCh    <-chan tea.Msg
	pathInput   textinput.Model
	bar         progress.Model

	// Change feed
	live     bool
	changeCh <-chan tea.Msg

	mode    mode
	pending client.File

	errMsg   string
	success  string
	bannerID int

	width int
}

// New builds the model. ctx bounds every request and the change feed.
func New(ctx context.Context, gw Gateway, server, downloadDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/file"
	ti.Prompt = "File to upload: "
	ti.CharLimit = 4096
	ti.Width = 50

	return Model{
		ctx:         ctx,
		gw:          gw,
		server:      server,
		downloadDir: downloadDir,
		now:         time.Now,
		pathInput:   ti,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:       80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("File Share"),
		checkHealth(m.ctx, m.gw),
		pollAfter(pollInterval),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(60, max(10, msg.Width-30))
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeUploadPath:
			return m.updatePathInput(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}

	case pollMsg:
		return m, tea.Batch(checkHealth(m.ctx, m.gw), pollAfter(pollInterval))

	case healthMsg:
		if msg.err != nil {
			m.connected = false
			m.errMsg = msgCannotConnect
			return m, nil
		}
		m.connected = true
		m.errMsg = ""
		m.loading = true
		cmds := []tea.Cmd{fetchFiles(m.ctx, m.gw)}
		if !m.live {
			m.live = true
			ch, cmd := subscribe(m.ctx, m.gw)
			m.changeCh = ch
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case filesMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msgLoadFailed
			return m, nil
		}
		m.files = msg.files
		m.errMsg = ""
		m.clampCursor()
		return m, nil

	case uploadProgressMsg:
		if m.uploadCh == nil {
			return m, nil
		}
		if msg.total > 0 {
			m.uploadRatio = float64(msg.done) / float64(msg.total)
		}
		return m, waitFor(m.uploadCh)

	case uploadDoneMsg:
		m.uploadCh = nil
		if msg.err != nil {
			m.uploading = false
			m.uploadRatio = 0
			m.errMsg = msgUploadFailed
			return m, nil
		}
		m.uploadRatio = 1
		m.loading = true
		banner := m.showSuccess(fmt.Sprintf(`"%s" uploaded!`, msg.name))
		return m, tea.Batch(banner, fetchFiles(m.ctx, m.gw), resetUploadAfter())

	case uploadResetMsg:
		m.uploading = false
		m.uploadRatio = 0
		m.uploadName = ""
		return m, nil

	case downloadDoneMsg:
		if msg.err != nil {
			m.errMsg = msgDownloadFailed
			return m, nil
		}
		banner := m.showSuccess(fmt.Sprintf(`Downloaded "%s"`, msg.name))
		return m, banner

	case deleteDoneMsg:
		if msg.err != nil {
			m.errMsg = msgDeleteFailed
			return m, nil
		}
		m.loading = true
		banner := m.showSuccess(fmt.Sprintf(`"%s" deleted!`, msg.name))
		return m, tea.Batch(banner, fetchFiles(m.ctx, m.gw))

	case clearBannerMsg:
		if msg.id == m.bannerID {
			m.success = ""
		}
		return m, nil

	case changeMsg:
		if m.changeCh == nil {
			return m, nil
		}
		return m, tea.Batch(fetchFiles(m.ctx, m.gw), waitFor(m.changeCh))

	case changesClosedMsg:
		// Resubscribed after the next successful health check.
		m.live = false
		m.changeCh = nil
		return m, nil
	}

	if m.mode == modeUploadPath {
		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, fetchFiles(m.ctx, m.gw)
	case key.Matches(msg, keys.Upload):
		if m.uploading {
			return m, nil
		}
		m.mode = modeUploadPath
		m.pathInput.SetValue("")
		cmd := m.pathInput.Focus()
		return m, cmd
	case key.Matches(msg, keys.Download):
		if f, ok := m.selected(); ok {
			return m, downloadFile(m.ctx, m.gw, m.downloadDir, f)
		}
	case key.Matches(msg, keys.Delete):
		if f, ok := m.selected(); ok {
			m.pending = f
			m.mode = modeConfirmDelete
		}
	}
	return m, nil
}

func (m Model) updatePathInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.mode = modeBrowse
		m.pathInput.Blur()
		return m, nil
	case key.Matches(msg, keys.Submit):
		m.mode = modeBrowse
		m.pathInput.Blur()
		path := expandHome(strings.TrimSpace(m.pathInput.Value()))
		if path == "" || m.uploading {
			return m, nil
		}
		m.uploading = true
		m.uploadRatio = 0
		m.uploadName = filepath.Base(path)
		m.errMsg = ""
		ch, cmd := startUpload(m.ctx, m.gw, path, m.uploadName)
		m.uploadCh = ch
		return m, cmd
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		m.mode = modeBrowse
		f := m.pending
		m.pending = client.File{}
		return m, deleteFile(m.ctx, m.gw, f)
	case key.Matches(msg, keys.No):
		m.mode = modeBrowse
		m.pending = client.File{}
	}
	return m, nil
}

// showSuccess replaces the success banner. Only the clear scheduled by the
// latest banner takes effect.
func (m *Model) showSuccess(text string) tea.Cmd {
	m.bannerID++
	m.success = text
	return clearBannerAfter(m.bannerID)
}

func (m Model) selected() (client.File, bool) {
	if m.cursor < 0 || m.cursor >= len(m.files) {
		return client.File{}, false
	}
	return m.files[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.files) {
		m.cursor = len(m.files) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
