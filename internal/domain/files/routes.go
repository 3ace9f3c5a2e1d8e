package files

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the gateway under r (normally the /api group).
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/health", h.Health)
	r.POST("/upload", h.Upload)
	r.GET("/download/:filename", h.Download)

	files := r.Group("/files")
	{
		files.GET("", h.List)
		files.DELETE("/:filename", h.Delete)
	}
}
