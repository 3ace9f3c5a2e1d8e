package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// stagingDirName holds uploads in flight. It is a directory, so listings
// never show it and partial uploads never become visible.
const stagingDirName = ".staging"

// Store is a handle on one flat storage directory.
type Store struct {
	dir string

	now    func() time.Time
	suffix func() int64
}

// NewStore opens dir, creating it (and its staging area) when absent.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, stagingDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: abs, now: time.Now, suffix: randomSuffix}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save streams r into a new stored file named after original. At most limit
// bytes are accepted; anything larger fails with ErrFileTooLarge and leaves
// no trace in the directory.
func (s *Store) Save(original string, r io.Reader, limit int64) (StoredFile, time.Time, error) {
	at := s.now()
	name := StoredName(original, at, s.suffix())

	tmp, err := os.CreateTemp(filepath.Join(s.dir, stagingDirName), "upload-*")
	if err != nil {
		return StoredFile{}, at, fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	discard := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if err != nil {
		discard()
		return StoredFile{}, at, fmt.Errorf("write upload: %w", err)
	}
	if n > limit {
		discard()
		return StoredFile{}, at, ErrFileTooLarge
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return StoredFile{}, at, fmt.Errorf("close upload: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return StoredFile{}, at, fmt.Errorf("publish upload: %w", err)
	}

	return StoredFile{
		Name:         name,
		OriginalName: OriginalName(name),
		Size:         n,
		ModTime:      at,
	}, at, nil
}

// List returns the regular files in the directory, newest first.
// Entries removed while listing are skipped.
func (s *Store) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	out := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(s.dir, entry.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		out = append(out, fromInfo(entry.Name(), info))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// Stat looks a stored file up by exact name.
func (s *Store) Stat(name string) (StoredFile, error) {
	path, err := s.path(name)
	if err != nil {
		return StoredFile{}, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StoredFile{}, ErrNotFound
	}
	if err != nil {
		return StoredFile{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return StoredFile{}, ErrNotFound
	}
	return fromInfo(name, info), nil
}

// Open returns the stored file for reading. The caller closes it.
func (s *Store) Open(name string) (*os.File, StoredFile, error) {
	file, err := s.Stat(name)
	if err != nil {
		return nil, StoredFile{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, StoredFile{}, ErrNotFound
	}
	if err != nil {
		return nil, StoredFile{}, fmt.Errorf("open %s: %w", name, err)
	}
	return f, file, nil
}

// Delete removes a stored file. Sub-directories are never removed.
func (s *Store) Delete(name string) error {
	if _, err := s.Stat(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func fromInfo(name string, info fs.FileInfo) StoredFile {
	return StoredFile{
		Name:         name,
		OriginalName: OriginalName(name),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
	}
}
