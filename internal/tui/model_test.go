package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/internal/client"
	"fileshare/internal/domain/events"
)

type fakeGateway struct {
	mu sync.Mutex

	healthErr   error
	files       []client.File
	listErr     error
	uploadErr   error
	downloadErr error
	deleteErr   error

	uploaded   []string
	downloaded []string
	deleted    []string
}

func (g *fakeGateway) Health(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.healthErr
}

func (g *fakeGateway) List(context.Context) ([]client.File, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.files, g.listErr
}

func (g *fakeGateway) Upload(_ context.Context, path string, onProgress client.ProgressFunc) (*client.UploadResult, error) {
	onProgress(50, 100)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	g.uploaded = append(g.uploaded, path)
	return &client.UploadResult{Filename: "1-1-a.txt", OriginalName: "a.txt", Size: 100}, nil
}

func (g *fakeGateway) DownloadTo(_ context.Context, storedName, dir string, _ client.ProgressFunc) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.downloadErr != nil {
		return "", g.downloadErr
	}
	g.downloaded = append(g.downloaded, storedName)
	return dir + "/a.txt", nil
}

func (g *fakeGateway) Delete(_ context.Context, storedName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, storedName)
	return nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, _ func(events.Event)) error {
	<-ctx.Done()
	return nil
}

var sampleFiles = []client.File{
	{Filename: "2-2-b.txt", OriginalName: "b.txt", Size: 2048, UploadDate: time.Now()},
	{Filename: "1-1-a.txt", OriginalName: "a.txt", Size: 10, UploadDate: time.Now().Add(-time.Hour)},
}

func newTestModel(t *testing.T, gw *fakeGateway) Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, gw, "http://127.0.0.1:3001", t.TempDir())
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func withFiles(t *testing.T, m Model, files []client.File) Model {
	t.Helper()
	m, _ = update(t, m, filesMsg{files: files})
	return m
}

func TestHealthFailureKeepsListing(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeGateway{}), sampleFiles)
	m.connected = true

	m, cmd := update(t, m, healthMsg{err: errors.New("dial tcp: connection refused")})
	assert.Nil(t, cmd)
	assert.False(t, m.connected)
	assert.Equal(t, msgCannotConnect, m.errMsg)
	assert.Len(t, m.files, 2)
	assert.Contains(t, m.View(), msgCannotConnect)
}

func TestHealthSuccessRefreshesAndSubscribes(t *testing.T) {
	gw := &fakeGateway{files: sampleFiles}
	m := newTestModel(t, gw)
	m.errMsg = msgCannotConnect

	m, cmd := update(t, m, healthMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.connected)
	assert.True(t, m.loading)
	assert.True(t, m.live)
	assert.NotNil(t, m.changeCh)
	assert.Empty(t, m.errMsg)

	msg := fetchFiles(m.ctx, gw)()
	m, _ = update(t, m, msg)
	assert.False(t, m.loading)
	assert.Equal(t, sampleFiles, m.files)

	// A second success does not open another subscription.
	ch := m.changeCh
	m, _ = update(t, m, healthMsg{})
	assert.Equal(t, ch, m.changeCh)
}

func TestListFailureKeepsStaleFiles(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeGateway{}), sampleFiles)

	m, _ = update(t, m, filesMsg{err: errors.New("boom")})
	assert.Equal(t, msgLoadFailed, m.errMsg)
	assert.Equal(t, sampleFiles, m.files)

	m, _ = update(t, m, filesMsg{files: sampleFiles[:1]})
	assert.Empty(t, m.errMsg)
	assert.Len(t, m.files, 1)
}

func TestCursorClampedAfterRefresh(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeGateway{}), sampleFiles)
	m, _ = update(t, m, keyPress("down"))
	assert.Equal(t, 1, m.cursor)

	m, _ = update(t, m, filesMsg{files: sampleFiles[:1]})
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, filesMsg{files: []client.File{}})
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "No files shared yet")
}

func TestUploadFlow(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestModel(t, gw)

	m, _ = update(t, m, keyPress("u"))
	require.Equal(t, modeUploadPath, m.mode)

	m.pathInput.SetValue("  /tmp/a.txt ")
	m, cmd := update(t, m, keyPress("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.True(t, m.uploading)
	assert.Equal(t, "a.txt", m.uploadName)
	require.NotNil(t, m.uploadCh)

	// Only one upload at a time.
	blocked, _ := update(t, m, keyPress("u"))
	assert.Equal(t, modeBrowse, blocked.mode)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Nil(t, batch[0]())

	var done bool
	for msg := range m.uploadCh {
		if _, ok := msg.(uploadDoneMsg); ok {
			done = true
		}
		m, _ = update(t, m, msg)
	}
	require.True(t, done)
	assert.Equal(t, []string{"/tmp/a.txt"}, gw.uploaded)
	assert.Equal(t, float64(1), m.uploadRatio)
	assert.Equal(t, `"a.txt" uploaded!`, m.success)
	assert.True(t, m.uploading, "progress lingers until reset")

	m, _ = update(t, m, uploadResetMsg{})
	assert.False(t, m.uploading)
	assert.Zero(t, m.uploadRatio)
}

func TestUploadFailure(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})
	m.uploading = true
	m.uploadRatio = 0.4

	m, cmd := update(t, m, uploadDoneMsg{name: "a.txt", err: errors.New("413")})
	assert.Nil(t, cmd, "no refresh after a failed upload")
	assert.False(t, m.uploading)
	assert.Zero(t, m.uploadRatio)
	assert.Equal(t, msgUploadFailed, m.errMsg)
	assert.Empty(t, m.success)
}

func TestUploadPathCancelled(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})

	m, _ = update(t, m, keyPress("u"))
	m.pathInput.SetValue("/tmp/a.txt")
	m, _ = update(t, m, keyPress("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.False(t, m.uploading)

	m, _ = update(t, m, keyPress("u"))
	assert.Empty(t, m.pathInput.Value())
	m, cmd := update(t, m, keyPress("enter"))
	assert.Nil(t, cmd)
	assert.False(t, m.uploading)
}

func TestBannerClearsOnlyForLatest(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})

	m.showSuccess("first")
	m.showSuccess("second")

	m, _ = update(t, m, clearBannerMsg{id: 1})
	assert.Equal(t, "second", m.success)

	m, _ = update(t, m, clearBannerMsg{id: 2})
	assert.Empty(t, m.success)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	m := withFiles(t, newTestModel(t, gw), sampleFiles)

	m, _ = update(t, m, keyPress("x"))
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), `Delete "b.txt"? (y/n)`)

	m, cmd := update(t, m, keyPress("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, gw.deleted)

	m, _ = update(t, m, keyPress("x"))
	m, cmd = update(t, m, keyPress("y"))
	require.NotNil(t, cmd)

	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"2-2-b.txt"}, gw.deleted)
	assert.Equal(t, `"b.txt" deleted!`, m.success)
	assert.True(t, m.loading)
}

func TestDeleteFailure(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})

	m, _ = update(t, m, deleteDoneMsg{name: "b.txt", err: client.ErrNotFound})
	assert.Equal(t, msgDeleteFailed, m.errMsg)
	assert.Empty(t, m.success)
}

func TestDownload(t *testing.T) {
	gw := &fakeGateway{}
	m := withFiles(t, newTestModel(t, gw), sampleFiles)
	m, _ = update(t, m, keyPress("down"))

	_, cmd := update(t, m, keyPress("d"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, []string{"1-1-a.txt"}, gw.downloaded)
	assert.Equal(t, `Downloaded "a.txt"`, m.success)

	gw.downloadErr = errors.New("reset")
	_, cmd = update(t, m, keyPress("enter"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, msgDownloadFailed, m.errMsg)
}

func TestActionsIgnoredOnEmptyListing(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})

	m, cmd := update(t, m, keyPress("d"))
	assert.Nil(t, cmd)
	m, _ = update(t, m, keyPress("x"))
	assert.Equal(t, modeBrowse, m.mode)
}

func TestChangeFeed(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})
	ch := make(chan tea.Msg)
	m.changeCh = ch
	m.live = true

	_, cmd := update(t, m, changeMsg{event: events.Event{Type: "uploaded"}})
	assert.NotNil(t, cmd)

	m, _ = update(t, m, changesClosedMsg{})
	assert.False(t, m.live)
	assert.Nil(t, m.changeCh)

	_, cmd = update(t, m, changeMsg{})
	assert.Nil(t, cmd)
}

func TestPollSchedulesNextCheck(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})
	_, cmd := update(t, m, pollMsg{})
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Equal(t, healthMsg{}, batch[0]())
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})
	_, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestViewListsFiles(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeGateway{}), sampleFiles)
	m.connected = true

	view := m.View()
	assert.Contains(t, view, "Connected to http://127.0.0.1:3001")
	assert.Contains(t, view, "b.txt")
	assert.Contains(t, view, "2 KB")
	assert.Contains(t, view, "1h ago")
	assert.Contains(t, view, "Just now")
}

// deadlineGateway records whether any request carried a deadline.
type deadlineGateway struct {
	*fakeGateway
	deadlines []bool
}

func (g *deadlineGateway) note(ctx context.Context) {
	_, ok := ctx.Deadline()
	g.deadlines = append(g.deadlines, ok)
}

func (g *deadlineGateway) Health(ctx context.Context) error {
	g.note(ctx)
	return g.fakeGateway.Health(ctx)
}

func (g *deadlineGateway) List(ctx context.Context) ([]client.File, error) {
	g.note(ctx)
	return g.fakeGateway.List(ctx)
}

func (g *deadlineGateway) Delete(ctx context.Context, storedName string) error {
	g.note(ctx)
	return g.fakeGateway.Delete(ctx, storedName)
}

func TestRequestsHaveNoDeadline(t *testing.T) {
	gw := &deadlineGateway{fakeGateway: &fakeGateway{files: sampleFiles}}
	ctx := context.Background()

	assert.Equal(t, healthMsg{}, checkHealth(ctx, gw)())
	assert.Equal(t, filesMsg{files: sampleFiles}, fetchFiles(ctx, gw)())
	assert.Equal(t, deleteDoneMsg{name: sampleFiles[0].OriginalName}, deleteFile(ctx, gw, sampleFiles[0])())

	assert.Equal(t, []bool{false, false, false}, gw.deadlines)
}
