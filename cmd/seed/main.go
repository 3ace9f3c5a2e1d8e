// Command seed fills the share with sample files for demos and UI work.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fileshare/internal/config"
	"fileshare/internal/server"
)

var samples = []struct {
	name string
	size int
	text bool
}{
	{"meeting notes.txt", 2 << 10, true},
	{"Q3 budget.csv", 14 << 10, true},
	{"team photo.jpg", 850 << 10, false},
	{"design-review.pdf", 2 << 20, false},
	{"release build.zip", 6 << 20, false},
	{"onboarding checklist.md", 4 << 10, true},
}

func main() {
	clean := flag.Bool("clean", false, "delete every stored file first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.WatchEnabled = false

	app, err := server.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()

	if *clean {
		existing, err := app.Service.List(ctx)
		if err != nil {
			log.Fatal("list failed:", err)
		}
		for _, f := range existing {
			if err := app.Service.Delete(ctx, f.Name); err != nil {
				log.Printf("delete %s: %v", f.Name, err)
			}
		}
		log.Printf("Removed %d files", len(existing))
	}

	// Spread modification times so the listing shows every relative-time bucket.
	ages := []time.Duration{0, 5 * time.Minute, 3 * time.Hour, 30 * time.Hour, 4 * 24 * time.Hour, 12 * 24 * time.Hour}
	now := time.Now()

	for i, s := range samples {
		res, err := app.Service.Upload(ctx, s.name, bytes.NewReader(content(s.size, s.text)))
		if err != nil {
			log.Fatalf("upload %s: %v", s.name, err)
		}
		mtime := now.Add(-ages[i%len(ages)])
		if err := os.Chtimes(filepath.Join(app.Store.Dir(), res.File.Name), mtime, mtime); err != nil {
			log.Printf("chtimes %s: %v", res.File.Name, err)
		}
		log.Printf("Seeded %s as %s", s.name, res.File.Name)
	}

	if app.IndexEnabled() {
		// Backfill rows for files that predate the index.
		res, err := app.Service.Reconcile(ctx)
		if err != nil {
			log.Fatal("reconcile failed:", err)
		}
		log.Printf("Index reconciled: pruned=%d indexed=%d", res.Pruned, res.Indexed)
	}

	fmt.Printf("Seeded %d files into %s\n", len(samples), app.Store.Dir())
}

func content(size int, text bool) []byte {
	if text {
		line := "The quick brown fox jumps over the lazy dog.\n"
		return []byte(strings.Repeat(line, size/len(line)+1)[:size])
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(rand.IntN(256))
	}
	return buf
}
