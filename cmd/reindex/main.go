// Command reindex rebuilds the metadata index from the storage directory:
// rows for missing files are removed and unindexed files are added.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"fileshare/internal/config"
	"fileshare/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if !cfg.IndexEnabled {
		log.Fatal("INDEX_ENABLED is false; nothing to reindex")
	}
	cfg.WatchEnabled = false

	app, err := server.New(cfg)
	if err != nil {
		log.Fatalf("open gateway: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := app.Service.Reconcile(ctx)
	if err != nil {
		log.Fatalf("reindex failed: %v", err)
	}

	log.Printf("reindex completed: dir=%s pruned=%d indexed=%d", app.Store.Dir(), res.Pruned, res.Indexed)
}
