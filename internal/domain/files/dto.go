package files

// FileResponse is one element of GET /files.
type FileResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	UploadDate   string `json:"uploadDate"`
	ContentType  string `json:"contentType,omitempty"`
	Checksum     string `json:"checksum,omitempty"`
}

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	Success      bool   `json:"success"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	UploadDate   string `json:"uploadDate"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func toFileResponse(l Listing) FileResponse {
	return FileResponse{
		Filename:     l.Name,
		OriginalName: l.OriginalName,
		Size:         l.Size,
		UploadDate:   FormatTime(l.ModTime),
		ContentType:  l.ContentType,
		Checksum:     l.Checksum,
	}
}

func toUploadResponse(r *UploadResult) UploadResponse {
	return UploadResponse{
		Success:      true,
		Filename:     r.File.Name,
		OriginalName: r.ClientName,
		Size:         r.File.Size,
		UploadDate:   FormatTime(r.UploadedAt),
	}
}
