// hco-cleanup empties a Drive folder by deleting every child it contains.
// Point cleanup_folder_id at a folder of stale exports before a fresh cycle.
package main

import (
	"context"
	"log"
	"os"

	"github.com/vnbi/hco-tools/internal/config"
	"github.com/vnbi/hco-tools/internal/gdrive"
)

func main() {
	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Google.CredentialsFile == "" {
		log.Fatalf("Invalid config: google credentials file is required")
	}
	if cfg.Drive.CleanupFolderID == "" {
		log.Fatalf("Invalid config: cleanup folder id is required")
	}

	ctx := context.Background()

	drive, err := gdrive.NewClient(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to init Drive client: %v", err)
	}

	files, err := drive.ListChildren(ctx, cfg.Drive.CleanupFolderID)
	if err != nil {
		log.Fatalf("Failed to list cleanup folder: %v", err)
	}

	failed := 0
	for _, f := range files {
		if err := drive.Delete(ctx, f.ID); err != nil {
			log.Printf("Failed to delete %q: %v", f.Name, err)
			failed++
			continue
		}
		log.Printf("Deleted %q", f.Name)
	}
	if failed > 0 {
		log.Printf("Cleanup finished with %d failures", failed)
		os.Exit(1)
	}
	log.Printf("Cleanup complete, %d files removed", len(files))
}
