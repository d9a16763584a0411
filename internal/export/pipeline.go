package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

// ErrExportIncomplete flags a run where some shippers still failed after the
// retry pass. Results are not published; the operator re-runs the whole tool.
var ErrExportIncomplete = errors.New("export incomplete after retry pass, re-run the tool")

// QueryService pulls the record table for a key list.
type QueryService interface {
	Query(ctx context.Context, trackingIDs []string) ([]domain.Record, error)
}

// ReferenceLoader loads the run's reference tables.
type ReferenceLoader interface {
	Shippers(ctx context.Context) ([]domain.Partner, error)
	TrackingIDs(ctx context.Context) ([]string, error)
	Folders(ctx context.Context) ([]domain.FolderRef, error)
}

// ResultPublisher writes the run outcome back to the output spreadsheet.
type ResultPublisher interface {
	Publish(ctx context.Context, done []reconcile.ResolvedRecord, missing []domain.Record,
		created []domain.NewShipper, failed []reconcile.ResolvedRecord, stats domain.RunStats) error
}

// Pipeline is the daily export run, strictly sequential. Two concurrent runs
// race on the delete-then-upload and same-day dedup steps; run one instance
// at a time.
type Pipeline struct {
	Roster    ReferenceLoader
	Query     QueryService
	Uploader  *Uploader
	Archiver  *Archiver
	Publisher ResultPublisher
	RunDay    domain.RunDate
}

// Run executes the full export cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	defer CleanScratch(p.Uploader.ScratchDir)

	shippers, err := p.Roster.Shippers(ctx)
	if err != nil {
		return err
	}
	trackingIDs, err := p.Roster.TrackingIDs(ctx)
	if err != nil {
		return err
	}
	folders, err := p.Roster.Folders(ctx)
	if err != nil {
		return err
	}

	records, err := p.Query.Query(ctx, trackingIDs)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}

	res := reconcile.Reconcile(records, shippers, folders, p.RunDay)

	// New shippers first, then existing folders, matching the established
	// run order.
	doneNew, quarNew, created := p.Uploader.ExportNew(ctx, reconcile.GroupByFolder(res.NewPartner))
	doneOld, quarOld := p.Uploader.ExportExisting(ctx, reconcile.GroupByFolder(res.Resolved))

	doneRetry, createdRetry, failed := p.Uploader.RetryFailed(ctx, append(quarNew, quarOld...))
	created = append(created, createdRetry...)

	done := make([]reconcile.ResolvedRecord, 0, len(doneNew)+len(doneOld)+len(doneRetry))
	done = append(done, doneNew...)
	done = append(done, doneOld...)
	done = append(done, doneRetry...)

	if err := p.Archiver.Archive(ctx); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}

	if len(failed) > 0 {
		logger.Error("run incomplete, skipping result publishing",
			"failed_records", len(failed))
		return ErrExportIncomplete
	}

	stats := domain.RunStats{
		RecordsExported:     len(done),
		ReportsExported:     uniqueShippers(done),
		ShippersMissingInfo: uniqueShipperIDs(res.NoShipperInfo),
		NewShippers:         len(created),
	}
	if err := p.Publisher.Publish(ctx, done, res.NoShipperInfo, created, nil, stats); err != nil {
		return fmt.Errorf("publishing results: %w", err)
	}

	logger.Info("export run complete",
		"records", stats.RecordsExported,
		"reports", stats.ReportsExported,
		"missing_info", stats.ShippersMissingInfo,
		"new_shippers", stats.NewShippers)
	return nil
}

func uniqueShippers(recs []reconcile.ResolvedRecord) int {
	ids := map[string]bool{}
	for _, r := range recs {
		ids[r.Partner.ID] = true
	}
	return len(ids)
}

func uniqueShipperIDs(recs []domain.Record) int {
	ids := map[string]bool{}
	for _, r := range recs {
		ids[r.ShipperID] = true
	}
	return len(ids)
}
