// Package collect gathers the shippers' completed response files and
// republishes them as one consolidated spreadsheet. It runs as its own entry
// point later in the cycle, against the folder ids the export run published.
package collect

import (
	"context"
	"fmt"
	"sort"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
	"github.com/vnbi/hco-tools/internal/report"
)

const (
	doneTab          = "done_export"
	responseBaseName = "_HCO_shipper_response"
)

// FolderStore is the slice of the Drive client the collector needs.
type FolderStore interface {
	ListChildren(ctx context.Context, parentID string) ([]gdrive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Delete(ctx context.Context, fileID string) error
	CreateSpreadsheet(ctx context.Context, parentID, name string) (string, error)
}

// SheetStore reads the export ledger and writes the consolidated output.
type SheetStore interface {
	Read(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
	Update(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error
}

// Collector consolidates shipper responses for one run date.
type Collector struct {
	Drive               FolderStore
	Sheets              SheetStore
	OutputSpreadsheetID string
	ResponseFolderID    string
	RunDay              domain.RunDate
}

// Run scans every exported shipper folder for a response file stamped with
// the run date, concatenates them, and publishes the result as a fresh
// spreadsheet in the response folder. Shippers without a readable response
// are logged and skipped.
func (c *Collector) Run(ctx context.Context) error {
	folderIDs, err := c.exportedFolders(ctx)
	if err != nil {
		return err
	}
	logger.Info("collecting shipper responses", "folders", len(folderIDs))

	rows := c.gather(ctx, folderIDs)
	if len(rows) == 0 {
		logger.Warn("no shipper responses found for run date", "date", c.RunDay.FileStamp())
	}

	return c.publish(ctx, rows)
}

// exportedFolders reads the done_export ledger and returns the distinct
// folder ids it references, in sorted order.
func (c *Collector) exportedFolders(ctx context.Context) ([]string, error) {
	rows, err := c.Sheets.Read(ctx, c.OutputSpreadsheetID, doneTab)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", doneTab, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s tab is empty, nothing to collect", doneTab)
	}

	idCol := -1
	for i, name := range rows[0] {
		if name == "f_id" {
			idCol = i
			break
		}
	}
	if idCol == -1 {
		return nil, fmt.Errorf("%s tab has no f_id column", doneTab)
	}

	seen := map[string]bool{}
	for _, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		id := row[idCol]
		if id == "" || id == "-" {
			continue
		}
		seen[id] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// gather downloads and parses the run-date response from each folder.
// The header row is kept once, from the first readable file.
func (c *Collector) gather(ctx context.Context, folderIDs []string) [][]string {
	var out [][]string
	for _, folderID := range folderIDs {
		files, err := c.Drive.ListChildren(ctx, folderID)
		if err != nil {
			logger.Warn("cannot list shipper folder", "folder", folderID, "error", err)
			continue
		}

		fileID := ""
		for _, f := range files {
			if date, ok := gdrive.DateFromReportName(f.Name); ok && date == c.RunDay.FileStamp() {
				fileID = f.ID
				break
			}
		}
		if fileID == "" {
			logger.Warn("no response file for run date", "folder", folderID, "date", c.RunDay.FileStamp())
			continue
		}

		data, err := c.Drive.Download(ctx, fileID)
		if err != nil {
			logger.Warn("cannot download response", "folder", folderID, "error", err)
			continue
		}
		rows, err := report.ParseResponse(data)
		if err != nil || len(rows) == 0 {
			logger.Warn("cannot parse response", "folder", folderID, "error", err)
			continue
		}

		if len(out) == 0 {
			out = append(out, rows[0])
		}
		out = append(out, rows[1:]...)
	}

	for _, row := range out {
		for i, v := range row {
			if v == "" {
				row[i] = "-"
			}
		}
	}
	return out
}

// publish removes any consolidated file already created today and writes the
// gathered table into a fresh spreadsheet in the response folder.
func (c *Collector) publish(ctx context.Context, rows [][]string) error {
	existing, err := c.Drive.ListChildren(ctx, c.ResponseFolderID)
	if err != nil {
		return fmt.Errorf("listing response folder: %w", err)
	}
	for _, f := range existing {
		if date, ok := gdrive.DatePrefix(f.Name); ok && date == c.RunDay.FileStamp() {
			if err := c.Drive.Delete(ctx, f.ID); err != nil {
				return fmt.Errorf("deleting stale response file %q: %w", f.Name, err)
			}
			logger.Info("deleted same-day response file", "name", f.Name)
		}
	}

	name := c.RunDay.FileStamp() + responseBaseName
	sheetID, err := c.Drive.CreateSpreadsheet(ctx, c.ResponseFolderID, name)
	if err != nil {
		return fmt.Errorf("creating response spreadsheet: %w", err)
	}

	if len(rows) > 0 {
		if err := c.Sheets.Update(ctx, sheetID, "A1", rows); err != nil {
			return fmt.Errorf("writing consolidated responses: %w", err)
		}
	}

	logger.Info("published consolidated responses", "name", name, "rows", len(rows))
	return nil
}
