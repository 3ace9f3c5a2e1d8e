package files

import (
	"context"

	"gorm.io/gorm"

	"fileshare/internal/database"
)

// Index stores optional per-file metadata next to the directory.
type Index interface {
	Save(ctx context.Context, r *Record) error
	// Add inserts r only when no row exists for its stored name yet and
	// reports ErrIndexed otherwise.
	Add(ctx context.Context, r *Record) error
	All(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, storedName string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Index {
	return &repository{db: db}
}

// Save inserts rec. A stored-name collision means the file was replaced,
// so the existing row takes the new values.
func (r *repository) Save(ctx context.Context, rec *Record) error {
	db := r.db.WithContext(ctx)
	err := db.Create(rec).Error
	if !database.IsUniqueViolation(err) {
		return err
	}
	return db.Model(&Record{}).
		Where("stored_name = ?", rec.StoredName).
		Updates(map[string]interface{}{
			"client_name":  rec.ClientName,
			"content_type": rec.ContentType,
			"checksum":     rec.Checksum,
			"size":         rec.Size,
			"created_at":   rec.CreatedAt,
		}).Error
}

func (r *repository) Add(ctx context.Context, rec *Record) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if database.IsUniqueViolation(err) {
		return ErrIndexed
	}
	return err
}

func (r *repository) All(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error
	return recs, err
}

func (r *repository) Delete(ctx context.Context, storedName string) error {
	return r.db.WithContext(ctx).Where("stored_name = ?", storedName).Delete(&Record{}).Error
}
