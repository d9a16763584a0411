package main

import (
	"context"
	"log"
	"os"

	"github.com/vnbi/hco-tools/internal/config"
	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/export"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/gsheets"
	"github.com/vnbi/hco-tools/internal/publish"
	"github.com/vnbi/hco-tools/internal/redash"
	"github.com/vnbi/hco-tools/internal/report"
	"github.com/vnbi/hco-tools/internal/roster"
)

func main() {
	log.Println("Starting HCO daily export...")

	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateExport(); err != nil {
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

	run := domain.Today()
	pipeline := &export.Pipeline{
		Roster: &roster.Loader{
			Sheets:              sheets,
			Drive:               drive,
			InputSpreadsheetID:  cfg.Sheets.InputSpreadsheetID,
			ShipperRootFolderID: cfg.Drive.ShipperRootFolderID,
		},
		Query: redash.NewClient(cfg.Redash),
		Uploader: &export.Uploader{
			Store:        drive,
			Builder:      report.Builder{Dir: cfg.Export.ScratchDir},
			ScratchDir:   cfg.Export.ScratchDir,
			RootFolderID: cfg.Drive.ShipperRootFolderID,
			Run:          run,
		},
		Archiver: &export.Archiver{
			Store:            drive,
			ScratchDir:       cfg.Export.ScratchDir,
			InternalFolderID: cfg.Drive.InternalFolderID,
			Run:              run,
		},
		Publisher: &publish.Publisher{
			Sheets:              sheets,
			OutputSpreadsheetID: cfg.Sheets.OutputSpreadsheetID,
			Run:                 run,
		},
		RunDay: run,
	}

	if err := pipeline.Run(ctx); err != nil {
		log.Printf("Export run failed: %v", err)
		os.Exit(1)
	}
	log.Println("Export run complete")
}
