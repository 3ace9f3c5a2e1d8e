package files

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// sniffLen is how much of an upload is inspected for its content type.
const sniffLen = 3072

const (
	EventUploaded = "uploaded"
	EventDeleted  = "deleted"
)

// Publisher receives a notification after each successful change.
type Publisher interface {
	Publish(kind, filename string)
}

// Service runs the gateway operations against a Store. The index and the
// publisher are optional.
type Service struct {
	store    *Store
	index    Index
	events   Publisher
	maxBytes int64
}

func NewService(store *Store, index Index, events Publisher, maxBytes int64) *Service {
	return &Service{store: store, index: index, events: events, maxBytes: maxBytes}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload stores the content of r under a freshly generated name.
func (s *Service) Upload(ctx context.Context, clientName string, r io.Reader) (*UploadResult, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	contentType := mimetype.Detect(head).String()

	hasher, err := newHasher()
	if err != nil {
		return nil, err
	}

	file, at, err := s.store.Save(clientName, io.TeeReader(br, hasher), s.maxBytes)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		File:        file,
		ClientName:  clientName,
		UploadedAt:  at,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	}

	if s.index != nil {
		rec := &Record{
			ID:          uuid.NewString(),
			StoredName:  file.Name,
			ClientName:  clientName,
			ContentType: result.ContentType,
			Checksum:    result.Checksum,
			Size:        file.Size,
			CreatedAt:   at,
		}
		if err := s.index.Save(ctx, rec); err != nil {
			log.Printf("index_error op=save stored=%s error=%q", file.Name, err)
		}
	}

	s.publish(EventUploaded, file.Name)
	return result, nil
}

// List returns every stored file, newest first, with index details when known.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	stored, err := s.store.List()
	if err != nil {
		return nil, err
	}

	records := s.recordsByName(ctx)
	out := make([]Listing, 0, len(stored))
	for _, f := range stored {
		item := Listing{StoredFile: f}
		if rec, ok := records[f.Name]; ok {
			item.ContentType = rec.ContentType
			item.Checksum = rec.Checksum
		}
		out = append(out, item)
	}
	return out, nil
}

// Open returns a stored file for streaming. The caller closes it.
func (s *Service) Open(_ context.Context, name string) (*os.File, StoredFile, error) {
	return s.store.Open(name)
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(name); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, name); err != nil {
			log.Printf("index_error op=delete stored=%s error=%q", name, err)
		}
	}
	s.publish(EventDeleted, name)
	return nil
}

// Reconcile brings the index in line with the directory: rows for vanished
// files are pruned and files without a row are indexed.
func (s *Service) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	if s.index == nil {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Snapshot the index before the directory. A row written after the
	// snapshot is never pruned, and a file written after it is only
	// backfilled when its upload has not indexed it yet.
	records, err := s.index.All(ctx)
	if err != nil {
		return result, fmt.Errorf("load index: %w", err)
	}
	stored, err := s.store.List()
	if err != nil {
		return result, err
	}

	present := make(map[string]bool, len(stored))
	for _, f := range stored {
		present[f.Name] = true
	}

	indexed := make(map[string]bool, len(records))
	for _, rec := range records {
		if present[rec.StoredName] {
			indexed[rec.StoredName] = true
			continue
		}
		if err := s.index.Delete(ctx, rec.StoredName); err != nil {
			return result, fmt.Errorf("prune %s: %w", rec.StoredName, err)
		}
		result.Pruned++
	}

	for _, f := range stored {
		if indexed[f.Name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := s.describe(f)
		if err != nil {
			// The file may have been deleted since listing.
			log.Printf("index_error op=reconcile stored=%s error=%q", f.Name, err)
			continue
		}
		err = s.index.Add(ctx, rec)
		if errors.Is(err, ErrIndexed) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("index %s: %w", f.Name, err)
		}
		result.Indexed++
	}

	return result, nil
}

// describe builds an index row for a file that was not uploaded through
// the gateway (or whose row was lost).
func (s *Service) describe(f StoredFile) (*Record, error) {
	fh, _, err := s.store.Open(f.Name)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	hasher, err := newHasher()
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(fh, sniffLen)
	head, _ := br.Peek(sniffLen)
	contentType := mimetype.Detect(head).String()
	if _, err := io.Copy(hasher, br); err != nil {
		return nil, err
	}

	return &Record{
		ID:          uuid.NewString(),
		StoredName:  f.Name,
		ClientName:  f.OriginalName,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		Size:        f.Size,
		CreatedAt:   f.ModTime,
	}, nil
}

func (s *Service) recordsByName(ctx context.Context) map[string]*Record {
	if s.index == nil {
		return nil
	}
	records, err := s.index.All(ctx)
	if err != nil {
		log.Printf("index_error op=list error=%q", err)
		return nil
	}
	out := make(map[string]*Record, len(records))
	for _, rec := range records {
		out[rec.StoredName] = rec
	}
	return out
}

func (s *Service) publish(kind, name string) {
	if s.events != nil {
		s.events.Publish(kind, name)
	}
}

func newHasher() (hash.Hash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("init checksum: %w", err)
	}
	return h, nil
}
