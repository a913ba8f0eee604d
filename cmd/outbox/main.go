package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/service/storage"
	"kiosk/internal/service/transport"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flush := flag.Bool("flush", false, "Replay pending confirmations to the server")
	timeout := flag.Duration("timeout", time.Minute, "Maximum time spent flushing")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Record store %s not found: %v", *dbPath, err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	records := sqlite.NewRecordRepository(db)

	pending, err := records.GetUnsynchronized(model.KindConfirmation, storage.SyncBatchSize)
	if err != nil {
		log.Fatalf("Failed to read pending records: %v", err)
	}
	total, err := records.CountUnsynchronized()
	if err != nil {
		log.Fatalf("Failed to count pending records: %v", err)
	}

	fmt.Printf("📦 %s: %d pending records\n", *dbPath, total)
	for _, rec := range pending {
		fmt.Printf("   - %s %s cedula=%s attempts=%d created=%s\n",
			rec.ID, rec.Kind, rec.Cedula, rec.Attempts, rec.CreatedAt.Local().Format(time.DateTime))
	}

	if !*flush {
		return
	}

	quiet := logger.NewDiscard()
	client := transport.NewHTTPClient(cfg, quiet)
	syncService := storage.NewSyncService(cfg, quiet, records, client)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Flushing to %s...\n", cfg.APIURL)
	sent := 0
	for ctx.Err() == nil {
		n := syncService.Flush(ctx)
		if n == 0 {
			break
		}
		sent += n
	}

	left, _ := records.CountUnsynchronized()
	fmt.Printf("✅ Delivered %d confirmations\n", sent)
	if left > 0 {
		fmt.Printf("⚠️  %d records still pending\n", left)
	}
}
