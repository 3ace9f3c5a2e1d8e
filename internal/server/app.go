package server

import (
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fileshare/internal/config"
	"fileshare/internal/database"
	"fileshare/internal/domain/events"
	"fileshare/internal/domain/files"
	"fileshare/web"
)

// App is a fully wired gateway.
type App struct {
	Config  *config.Config
	Store   *files.Store
	Service *files.Service
	Hub     *events.Hub
	Router  *gin.Engine

	db      *gorm.DB
	watcher *events.Watcher
}

func New(cfg *config.Config) (*App, error) {
	store, err := files.NewStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Store: store, Hub: events.NewHub()}

	var index files.Index
	if cfg.IndexEnabled {
		db, err := database.Connect(cfg.IndexDSN)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		if err := database.Migrate(db, &files.Record{}); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("migrate index: %w", err)
		}
		app.db = db
		index = files.NewRepository(db)
	}

	app.Service = files.NewService(store, index, app.Hub, cfg.MaxUploadBytes)

	if cfg.WatchEnabled {
		w, err := events.Watch(store.Dir(), app.Hub)
		if err != nil {
			log.Printf("events: watcher disabled: %v", err)
		} else {
			app.watcher = w
		}
	}

	app.Router = NewRouter(cfg, files.NewHandler(app.Service), events.NewHandler(app.Hub), uiBundle(cfg))
	return app, nil
}

// IndexEnabled reports whether a metadata index is attached.
func (a *App) IndexEnabled() bool { return a.db != nil }

func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.Hub.Close()
	if a.db != nil {
		return closeDB(a.db)
	}
	return nil
}

func uiBundle(cfg *config.Config) fs.FS {
	if cfg.StaticDir == "" {
		return web.Dist()
	}
	if _, err := os.Stat(cfg.StaticDir); err != nil {
		log.Printf("ui: static dir %s unusable (%v), using embedded bundle", cfg.StaticDir, err)
		return web.Dist()
	}
	return os.DirFS(cfg.StaticDir)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
