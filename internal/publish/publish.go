// Package publish writes the run outcome back to the output spreadsheet.
package publish

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

// Output spreadsheet tabs.
const (
	doneTab       = "done_export"
	missingTab    = "no_shipper_info"
	newShipperTab = "new_shipper"
	resultTab     = "result"
	errorTab      = "error_export"
)

// Cells of the result tab: the last-run stamp and the counter row.
const (
	resultStampCell  = resultTab + "!B2"
	resultStatsRange = resultTab + "!A5:D5"
)

// doneColumns is the consolidated export projection, an external contract
// with the response-collection cycle (f_id feeds the collector).
var doneColumns = []string{
	domain.ColReason,
	domain.ColTracking,
	domain.ColCreated,
	domain.ColAttempts,
	domain.ColInstruction,
	domain.ColCustomer,
	domain.ColShipperID,
	domain.ColPartner,
	domain.ColAddress,
	domain.ColPhone,
	"shipper_name",
	"shipper_name_rut_gon",
	"status",
	"f_name",
	"f_id",
}

// SheetStore is the slice of the Sheets client the publisher needs.
type SheetStore interface {
	ReadCell(ctx context.Context, spreadsheetID, cell string) (string, error)
	Overwrite(ctx context.Context, spreadsheetID, tab string, rows [][]string) error
	Append(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error
	Update(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error
}

// Publisher writes the four result tables.
type Publisher struct {
	Sheets              SheetStore
	OutputSpreadsheetID string
	Run                 domain.RunDate
}

// Publish writes the consolidated export, the failed-lookup records, the
// newly created shippers and the run counters. The main export tab is
// overwritten when the stored stamp is from the run date and appended to
// otherwise, so multiple dates accumulate while a same-day re-run replaces
// itself.
func (p *Publisher) Publish(ctx context.Context, done []reconcile.ResolvedRecord, missing []domain.Record,
	created []domain.NewShipper, failed []reconcile.ResolvedRecord, stats domain.RunStats) error {

	if err := p.publishDone(ctx, done); err != nil {
		return err
	}
	if err := p.publishMissing(ctx, missing); err != nil {
		return err
	}
	if err := p.publishNewShippers(ctx, created); err != nil {
		return err
	}
	if err := p.publishStats(ctx, stats); err != nil {
		return err
	}
	if err := p.publishErrors(ctx, failed); err != nil {
		return err
	}

	logger.Info("published run results", "done", len(done), "missing", len(missing),
		"new_shippers", len(created), "errors", len(failed))
	return nil
}

func (p *Publisher) publishDone(ctx context.Context, done []reconcile.ResolvedRecord) error {
	sameDay, err := p.isSameDay(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(done))
	for _, r := range done {
		rows = append(rows, doneRow(r))
	}

	if sameDay {
		all := append([][]string{doneColumns}, rows...)
		if err := p.Sheets.Overwrite(ctx, p.OutputSpreadsheetID, doneTab, all); err != nil {
			return fmt.Errorf("overwriting %s: %w", doneTab, err)
		}
		return nil
	}
	if err := p.Sheets.Append(ctx, p.OutputSpreadsheetID, doneTab, rows); err != nil {
		return fmt.Errorf("appending to %s: %w", doneTab, err)
	}
	return nil
}

// isSameDay compares the stored result stamp's date prefix with the run
// date. An empty or malformed stamp counts as a different day, so the run
// appends rather than wiping history.
func (p *Publisher) isSameDay(ctx context.Context) (bool, error) {
	stamp, err := p.Sheets.ReadCell(ctx, p.OutputSpreadsheetID, resultStampCell)
	if err != nil {
		return false, fmt.Errorf("reading last run stamp: %w", err)
	}
	if len(stamp) < 10 {
		return false, nil
	}
	return stamp[:10] == p.Run.FileStamp(), nil
}

func (p *Publisher) publishMissing(ctx context.Context, missing []domain.Record) error {
	rows := [][]string{domain.RecordColumns}
	for _, r := range missing {
		rows = append(rows, []string{
			r.TrackingID, r.CustomerName, r.Phone, r.Address, r.Instruction,
			r.Reason, r.CreatedAt, r.Attempts, r.ShipperID,
		})
	}
	if err := p.Sheets.Overwrite(ctx, p.OutputSpreadsheetID, missingTab, rows); err != nil {
		return fmt.Errorf("overwriting %s: %w", missingTab, err)
	}
	return nil
}

func (p *Publisher) publishNewShippers(ctx context.Context, created []domain.NewShipper) error {
	rows := [][]string{{"shipper_id", "folder_name", "folder_link"}}
	for _, s := range created {
		rows = append(rows, []string{s.ShipperID, s.FolderName, s.FolderLink})
	}
	if err := p.Sheets.Overwrite(ctx, p.OutputSpreadsheetID, newShipperTab, rows); err != nil {
		return fmt.Errorf("overwriting %s: %w", newShipperTab, err)
	}
	return nil
}

func (p *Publisher) publishStats(ctx context.Context, stats domain.RunStats) error {
	if err := p.Sheets.Update(ctx, p.OutputSpreadsheetID, resultStampCell, [][]string{{p.Run.Stamp()}}); err != nil {
		return fmt.Errorf("writing run stamp: %w", err)
	}
	row := []string{
		strconv.Itoa(stats.RecordsExported),
		strconv.Itoa(stats.ReportsExported),
		strconv.Itoa(stats.ShippersMissingInfo),
		strconv.Itoa(stats.NewShippers),
	}
	if err := p.Sheets.Update(ctx, p.OutputSpreadsheetID, resultStatsRange, [][]string{row}); err != nil {
		return fmt.Errorf("writing run counters: %w", err)
	}
	return nil
}

func (p *Publisher) publishErrors(ctx context.Context, failed []reconcile.ResolvedRecord) error {
	rows := [][]string{doneColumns}
	for _, r := range failed {
		rows = append(rows, doneRow(r))
	}
	if err := p.Sheets.Overwrite(ctx, p.OutputSpreadsheetID, errorTab, rows); err != nil {
		return fmt.Errorf("overwriting %s: %w", errorTab, err)
	}
	return nil
}

func doneRow(r reconcile.ResolvedRecord) []string {
	return []string{
		dash(r.Reason),
		dash(r.TrackingID),
		dash(r.CreatedAt),
		dash(r.Attempts),
		dash(r.Instruction),
		dash(r.CustomerName),
		dash(r.ShipperID),
		dash(r.DisplayName),
		dash(r.Address),
		dash(r.Phone),
		dash(r.Partner.Name),
		dash(r.Partner.ShortName),
		dash(r.Partner.Status),
		dash(r.FolderKey),
		dash(r.FolderID),
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
