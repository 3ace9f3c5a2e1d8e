package files

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

// writeAt places a file directly in the directory with the given mtime.
func writeAt(t *testing.T, s *Store, name, content string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(s.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func stagingEntries(t *testing.T, s *Store) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.Dir(), stagingDirName))
	require.NoError(t, err)
	return entries
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_Save(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	s.suffix = func() int64 { return 7 }

	file, at, err := s.Save("report final.pdf", strings.NewReader("hello"), 1024)
	require.NoError(t, err)

	assert.Equal(t, "1700000000123-7-report_final.pdf", file.Name)
	assert.Equal(t, "report_final.pdf", file.OriginalName)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, int64(1700000000123), at.UnixMilli())

	got, err := os.ReadFile(filepath.Join(s.Dir(), file.Name))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Empty(t, stagingEntries(t, s))
}

func TestStore_SaveExactlyAtLimit(t *testing.T) {
	s := newTestStore(t)

	file, _, err := s.Save("a.bin", bytes.NewReader(make([]byte, 100)), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), file.Size)
}

func TestStore_SaveTooLarge(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Save("big.bin", bytes.NewReader(make([]byte, 101)), 100)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, stagingEntries(t, s))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_SaveReadError(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Save("x.txt", io.MultiReader(strings.NewReader("partial"), failingReader{}), 1024)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFileTooLarge)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, stagingEntries(t, s))
}

func TestStore_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	list, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
}

func TestStore_ListNewestFirstSkipsDirectories(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	writeAt(t, s, "100-1-old.txt", "old", base)
	writeAt(t, s, "300-1-new.txt", "newest", base.Add(2*time.Hour))
	writeAt(t, s, "200-1-mid.txt", "mid", base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "subdir"), 0o755))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "new.txt", list[0].OriginalName)
	assert.Equal(t, int64(len("newest")), list[0].Size)
	assert.Equal(t, "mid.txt", list[1].OriginalName)
	assert.Equal(t, "old.txt", list[2].OriginalName)
	assert.True(t, list[0].ModTime.Equal(base.Add(2*time.Hour)))
}

func TestStore_ListUnreadableDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.RemoveAll(s.Dir()))

	_, err := s.List()
	assert.Error(t, err)
}

func TestStore_OpenAndStat(t *testing.T) {
	s := newTestStore(t)
	writeAt(t, s, "1-2-notes.md", "# notes", time.Now())

	f, info, err := s.Open("1-2-notes.md")
	require.NoError(t, err)
	defer f.Close()

	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "# notes", string(body))
	assert.Equal(t, "notes.md", info.OriginalName)

	_, _, err = s.Open("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Stat(stagingDirName)
	assert.ErrorIs(t, err, ErrNotFound, "directories are not stored files")

	_, err = s.Stat("../escape")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestStore_DeleteTwice(t *testing.T) {
	s := newTestStore(t)
	writeAt(t, s, "1-2-a.txt", "a", time.Now())

	require.NoError(t, s.Delete("1-2-a.txt"))
	assert.ErrorIs(t, s.Delete("1-2-a.txt"), ErrNotFound)
}

func TestStore_DeleteNeverRemovesDirectories(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.Delete(stagingDirName), ErrNotFound)
	_, err := os.Stat(filepath.Join(s.Dir(), stagingDirName))
	assert.NoError(t, err)
}
