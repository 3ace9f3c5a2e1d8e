// Package client talks to a running gateway over HTTP and websocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"fileshare/internal/domain/events"
)

// ErrNotFound is returned when the gateway answers 404.
var ErrNotFound = errors.New("not found")

// StatusError carries a non-2xx answer other than 404.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// ProgressFunc receives the bytes transferred so far and the expected total.
// total is -1 when unknown.
type ProgressFunc func(done, total int64)

// File is one entry of the listing.
type File struct {
	Filename     string
	OriginalName string
	Size         int64
	UploadDate   time.Time
	ContentType  string
	Checksum     string
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Filename     string
	OriginalName string
	Size         int64
	UploadDate   time.Time
}

type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the gateway at baseURL, e.g. http://192.168.1.20:3001.
// A missing scheme defaults to http.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{},
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Health checks the gateway's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/api/health", &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", body.Status)
	}
	return nil
}

// List returns stored files, newest first.
func (c *Client) List(ctx context.Context) ([]File, error) {
	var wire []struct {
		Filename     string `json:"filename"`
		OriginalName string `json:"originalname"`
		Size         int64  `json:"size"`
		UploadDate   string `json:"uploadDate"`
		ContentType  string `json:"contentType"`
		Checksum     string `json:"checksum"`
	}
	if err := c.getJSON(ctx, "/api/files", &wire); err != nil {
		return nil, err
	}

	out := make([]File, 0, len(wire))
	for _, w := range wire {
		out = append(out, File{
			Filename:     w.Filename,
			OriginalName: w.OriginalName,
			Size:         w.Size,
			UploadDate:   parseTime(w.UploadDate),
			ContentType:  w.ContentType,
			Checksum:     w.Checksum,
		})
	}
	return out, nil
}

// Upload streams the file at path as multipart field "file". onProgress may
// be nil.
func (c *Client) Upload(ctx context.Context, path string, onProgress ProgressFunc) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		var src io.Reader = f
		if onProgress != nil {
			onProgress(0, info.Size())
			src = io.TeeReader(f, &countingWriter{total: info.Size(), fn: onProgress})
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()
	// Unblock the writer if the server answered before reading everything.
	pr.CloseWithError(io.ErrClosedPipe)

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var wire struct {
		Success      bool   `json:"success"`
		Filename     string `json:"filename"`
		OriginalName string `json:"originalname"`
		Size         int64  `json:"size"`
		UploadDate   string `json:"uploadDate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if !wire.Success {
		return nil, &StatusError{Code: resp.StatusCode, Message: "upload not acknowledged"}
	}
	return &UploadResult{
		Filename:     wire.Filename,
		OriginalName: wire.OriginalName,
		Size:         wire.Size,
		UploadDate:   parseTime(wire.UploadDate),
	}, nil
}

// Download writes the stored file to w and returns the name the gateway
// suggests saving it under. onProgress may be nil.
func (c *Client) Download(ctx context.Context, storedName string, w io.Writer, onProgress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/download/"+url.PathEscape(storedName), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var src io.Reader = resp.Body
	if onProgress != nil {
		onProgress(0, resp.ContentLength)
		src = io.TeeReader(resp.Body, &countingWriter{total: resp.ContentLength, fn: onProgress})
	}
	if _, err := io.Copy(w, src); err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	return attachmentName(resp.Header.Get("Content-Disposition"), storedName), nil
}

// DownloadTo saves the stored file into dir under its suggested name and
// returns the path written. An existing file is never overwritten; a
// numbered variant such as "notes (1).txt" is used instead.
func (c *Client) DownloadTo(ctx context.Context, storedName, dir string, onProgress ProgressFunc) (string, error) {
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".fileshare-*.part")
	if err != nil {
		return "", err
	}
	discard := func() { _ = os.Remove(tmp.Name()) }

	name, err := c.Download(ctx, storedName, tmp, onProgress)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		discard()
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		discard()
		return "", err
	}

	dest, err := availablePath(dir, name)
	if err != nil {
		discard()
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		discard()
		return "", err
	}
	return dest, nil
}

func (c *Client) Delete(ctx context.Context, storedName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/files/"+url.PathEscape(storedName), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Subscribe reads the change feed and calls fn for every event until ctx is
// cancelled or the connection drops. Cancellation returns nil.
func (c *Client) Subscribe(ctx context.Context, fn func(events.Event)) error {
	wsURL, err := c.eventsURL()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		var ev events.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read events: %w", err)
		}
		fn(ev)
	}
}

func (c *Client) eventsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/events")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// attachmentName extracts the filename parameter, falling back to the
// stored name when the header is missing or malformed.
func attachmentName(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}

func availablePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type countingWriter struct {
	done  int64
	total int64
	fn    ProgressFunc
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.done += int64(len(p))
	w.fn(w.done, w.total)
	return len(p), nil
}
