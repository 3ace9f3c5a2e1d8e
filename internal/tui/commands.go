package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fileshare/internal/client"
	"fileshare/internal/domain/events"
)

const (
	pollInterval   = 30 * time.Second
	bannerDuration = 3 * time.Second
	uploadLinger   = time.Second
)

// Gateway is the part of client.Client the UI needs.
type Gateway interface {
	Health(ctx context.Context) error
	List(ctx context.Context) ([]client.File, error)
	Upload(ctx context.Context, path string, onProgress client.ProgressFunc) (*client.UploadResult, error)
	DownloadTo(ctx context.Context, storedName, dir string, onProgress client.ProgressFunc) (string, error)
	Delete(ctx context.Context, storedName string) error
	Subscribe(ctx context.Context, fn func(events.Event)) error
}

type (
	pollMsg   struct{}
	healthMsg struct{ err error }
	filesMsg  struct {
		files []client.File
		err   error
	}

	uploadProgressMsg struct{ done, total int64 }
	uploadDoneMsg     struct {
		name   string
		result *client.UploadResult
		err    error
	}
	uploadResetMsg struct{}

	downloadDoneMsg struct {
		name string
		path string
		err  error
	}
	deleteDoneMsg struct {
		name string
		err  error
	}

	clearBannerMsg struct{ id int }

	changeMsg        struct{ event events.Event }
	changesClosedMsg struct{ err error }
)

func pollAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollMsg{} })
}

func clearBannerAfter(id int) tea.Cmd {
	return tea.Tick(bannerDuration, func(time.Time) tea.Msg { return clearBannerMsg{id: id} })
}

func resetUploadAfter() tea.Cmd {
	return tea.Tick(uploadLinger, func(time.Time) tea.Msg { return uploadResetMsg{} })
}

func checkHealth(ctx context.Context, gw Gateway) tea.Cmd {
	return func() tea.Msg {
		return healthMsg{err: gw.Health(ctx)}
	}
}

func fetchFiles(ctx context.Context, gw Gateway) tea.Cmd {
	return func() tea.Msg {
		files, err := gw.List(ctx)
		return filesMsg{files: files, err: err}
	}
}

// startUpload runs the upload in the background. Progress and the final
// result arrive on the returned channel, which is closed afterwards.
func startUpload(ctx context.Context, gw Gateway, path, name string) (<-chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 8)
	run := func() tea.Msg {
		go func() {
			defer close(ch)
			res, err := gw.Upload(ctx, path, func(done, total int64) {
				select {
				case ch <- uploadProgressMsg{done: done, total: total}:
				default:
				}
			})
			ch <- uploadDoneMsg{name: name, result: res, err: err}
		}()
		return nil
	}
	return ch, tea.Batch(run, waitFor(ch))
}

// waitFor delivers the next message from ch.
func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func downloadFile(ctx context.Context, gw Gateway, dir string, f client.File) tea.Cmd {
	return func() tea.Msg {
		path, err := gw.DownloadTo(ctx, f.Filename, dir, nil)
		return downloadDoneMsg{name: f.OriginalName, path: path, err: err}
	}
}

func deleteFile(ctx context.Context, gw Gateway, f client.File) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{name: f.OriginalName, err: gw.Delete(ctx, f.Filename)}
	}
}

// subscribe forwards change-feed events until the feed ends.
func subscribe(ctx context.Context, gw Gateway) (<-chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 16)
	run := func() tea.Msg {
		go func() {
			defer close(ch)
			err := gw.Subscribe(ctx, func(ev events.Event) {
				select {
				case ch <- changeMsg{event: ev}:
				case <-ctx.Done():
				}
			})
			ch <- changesClosedMsg{err: err}
		}()
		return nil
	}
	return ch, tea.Batch(run, waitFor(ch))
}
