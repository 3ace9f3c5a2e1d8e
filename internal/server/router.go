package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"fileshare/internal/config"
	"fileshare/internal/domain/events"
	"fileshare/internal/domain/files"
	"fileshare/internal/middleware"
	"fileshare/internal/pkg/response"
)

const apiPrefix = "/api"

// NewRouter wires the HTTP surface. eventsHandler and ui may be nil.
func NewRouter(cfg *config.Config, filesHandler *files.Handler, eventsHandler *events.Handler, ui fs.FS) *gin.Engine {
	r := gin.New()
	if !cfg.IsProduction() {
		r.Use(gin.Logger())
	}
	r.Use(middleware.ErrorLogger())
	if !cfg.IsProduction() {
		r.Use(middleware.CORS(cfg.DevOrigin))
	}

	api := r.Group(apiPrefix)
	files.RegisterRoutes(api, filesHandler)
	if eventsHandler != nil {
		events.RegisterRoutes(api, eventsHandler)
	}

	if cfg.IsProduction() && ui != nil {
		r.NoRoute(spaFallback(ui))
	} else {
		r.NoRoute(func(c *gin.Context) {
			response.Error(c, http.StatusNotFound, "Not found")
		})
	}

	return r
}

// spaFallback serves bundle assets by path and index.html for every other
// GET, so client-side routes survive a reload. Unknown API paths stay JSON.
func spaFallback(ui fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, http.StatusNotFound, "Not found")
			return
		}

		name := strings.TrimPrefix(path.Clean(p), "/")
		if name != "" && name != "index.html" && !strings.HasSuffix(name, "/index.html") {
			if info, err := fs.Stat(ui, name); err == nil && info.Mode().IsRegular() {
				http.ServeFileFS(c.Writer, c.Request, ui, name)
				return
			}
		}

		index, err := fs.ReadFile(ui, "index.html")
		if err != nil {
			response.Error(c, http.StatusNotFound, "Not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
}
