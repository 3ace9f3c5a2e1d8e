package files

import "time"

// StoredFile is a regular file in the storage directory. Everything except
// the name is derived: OriginalName from the name, Size and ModTime from stat.
type StoredFile struct {
	Name         string
	OriginalName string
	Size         int64
	ModTime      time.Time
}

// Record is the optional index row written next to each upload.
// The directory stays the source of truth; a record only adds detail.
type Record struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	StoredName  string    `gorm:"column:stored_name;uniqueIndex" json:"filename"`
	ClientName  string    `gorm:"column:client_name" json:"client_name"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Checksum    string    `gorm:"column:checksum" json:"checksum"`
	Size        int64     `gorm:"column:size" json:"size"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Record) TableName() string { return "stored_files" }

// Listing is one entry of the file listing.
type Listing struct {
	StoredFile
	ContentType string
	Checksum    string
}

// UploadResult describes a completed upload.
type UploadResult struct {
	File        StoredFile
	ClientName  string
	UploadedAt  time.Time
	ContentType string
	Checksum    string
}

// ReconcileResult counts the index changes made by Reconcile.
type ReconcileResult struct {
	Pruned  int
	Indexed int
}
