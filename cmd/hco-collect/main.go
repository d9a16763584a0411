package main

import (
	"context"
	"log"
	"os"

	"github.com/vnbi/hco-tools/internal/collect"
	"github.com/vnbi/hco-tools/internal/config"
	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/gsheets"
)

func main() {
	log.Println("Starting HCO response collection...")

	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateCollect(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	drive, err := gdrive.NewClient(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to init Drive client: %v", err)
	}
	sheets, err := gsheets.NewClient(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to init Sheets client: %v", err)
	}

	collector := &collect.Collector{
		Drive:               drive,
		Sheets:              sheets,
		OutputSpreadsheetID: cfg.Sheets.OutputSpreadsheetID,
		ResponseFolderID:    cfg.Drive.ResponseFolderID,
		RunDay:              domain.Today(),
	}

	if err := collector.Run(ctx); err != nil {
		log.Printf("Collection run failed: %v", err)
		os.Exit(1)
	}
	log.Println("Collection run complete")
}
