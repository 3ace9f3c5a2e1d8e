package files

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fileshare/internal/pkg/response"
)

const (
	uploadField = "file"

	// multipartSlack covers boundaries and part headers around the file
	// when comparing Content-Length against the size limit.
	multipartSlack = 1 << 20
)

// Handler serves the gateway's HTTP surface.
type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Health godoc
// @Summary Liveness check
// @Tags Files
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: FormatTime(h.now())})
}

// Upload godoc
// @Summary Upload a file
// @Description Accepts one file in the multipart field "file" and stores it under a generated name.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 200 {object} UploadResponse
// @Failure 400,413,500 {object} map[string]interface{}
// @Router /upload [post]
func (h *Handler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.service.MaxBytes()+multipartSlack {
		response.Error(c, http.StatusRequestEntityTooLarge, ErrFileTooLarge.Error())
		return
	}

	mr, err := c.Request.MultipartReader()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "No file")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			response.Error(c, http.StatusBadRequest, "Malformed upload")
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		result, err := h.service.Upload(c.Request.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			switch {
			case errors.Is(err, ErrFileTooLarge):
				response.Error(c, http.StatusRequestEntityTooLarge, err.Error())
			default:
				_ = c.Error(err)
				response.Error(c, http.StatusInternalServerError, "Upload failed")
			}
			return
		}

		log.Printf("uploaded stored=%s original=%q size=%d", result.File.Name, result.ClientName, result.File.Size)
		c.JSON(http.StatusOK, toUploadResponse(result))
		return
	}

	response.Error(c, http.StatusBadRequest, "No file")
}

// List godoc
// @Summary List stored files, newest first
// @Tags Files
// @Produce json
// @Success 200 {array} FileResponse
// @Failure 500 {object} map[string]interface{}
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Failed to read files")
		return
	}

	out := make([]FileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toFileResponse(item))
	}
	c.JSON(http.StatusOK, out)
}

// Download godoc
// @Summary Download a stored file under its original name
// @Tags Files
// @Produce octet-stream
// @Param filename path string true "Stored name"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /download/{filename} [get]
func (h *Handler) Download(c *gin.Context) {
	f, info, err := h.service.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		h.lookupError(c, err, "Download failed")
		return
	}
	defer f.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": info.OriginalName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	// Downloads are whole-file only. Without a Range header ServeContent
	// always answers 200 with the full body.
	c.Request.Header.Del("Range")
	c.Request.Header.Del("If-Range")
	http.ServeContent(c.Writer, c.Request, info.OriginalName, info.ModTime, f)
}

// Delete godoc
// @Summary Delete a stored file
// @Tags Files
// @Produce json
// @Param filename path string true "Stored name"
// @Success 200 {object} map[string]interface{}
// @Failure 404,500 {object} map[string]interface{}
// @Router /files/{filename} [delete]
func (h *Handler) Delete(c *gin.Context) {
	name := c.Param("filename")
	if err := h.service.Delete(c.Request.Context(), name); err != nil {
		h.lookupError(c, err, "Delete failed")
		return
	}

	log.Printf("deleted stored=%s", name)
	response.OK(c, http.StatusOK, nil)
}

func (h *Handler) lookupError(c *gin.Context, err error, failure string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		response.Error(c, http.StatusNotFound, "Not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, failure)
	}
}
