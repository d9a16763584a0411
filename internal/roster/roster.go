// Package roster loads the run's reference tables: the shipper roster and
// tracking key list from the input spreadsheet, and the shipper drop-folder
// listing from Drive.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
)

// Input spreadsheet tabs.
const (
	shipperInfoRange = "shipper_info!A2:D"
	trackingIDRange  = "tracking_id!A2:A"
	folderTab        = "shipper_folder"
)

// SheetStore is the slice of the Sheets client the loader needs.
type SheetStore interface {
	Read(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
	Overwrite(ctx context.Context, spreadsheetID, tab string, rows [][]string) error
}

// FolderLister lists Drive folder children.
type FolderLister interface {
	ListChildren(ctx context.Context, parentID string) ([]gdrive.File, error)
}

// Loader reads the reference tables for one run.
type Loader struct {
	Sheets              SheetStore
	Drive               FolderLister
	InputSpreadsheetID  string
	ShipperRootFolderID string
}

// Shippers loads the roster: rows missing id, name or short name are
// dropped, only ongoing shippers are kept, and duplicate ids keep the most
// recent entry.
func (l *Loader) Shippers(ctx context.Context) ([]domain.Partner, error) {
	rows, err := l.Sheets.Read(ctx, l.InputSpreadsheetID, shipperInfoRange)
	if err != nil {
		return nil, fmt.Errorf("loading shipper roster: %w", err)
	}

	var all []domain.Partner
	for _, row := range rows {
		p := domain.Partner{}
		if len(row) > 0 {
			p.ID = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			p.Name = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			p.ShortName = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			p.Status = strings.TrimSpace(row[3])
		}
		if p.ID == "" || p.Name == "" || p.ShortName == "" {
			continue
		}
		if p.Status != domain.StatusOngoing {
			continue
		}
		all = append(all, p)
	}

	// Keep the last entry per shipper id, preserving the order of the rows kept.
	seen := make(map[string]bool, len(all))
	kept := make([]domain.Partner, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if seen[all[i].ID] {
			continue
		}
		seen[all[i].ID] = true
		kept = append(kept, all[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	logger.Info("imported shipper roster", "shippers", len(kept))
	return kept, nil
}

// TrackingIDs loads the target record keys, deduplicated, empty rows dropped.
func (l *Loader) TrackingIDs(ctx context.Context) ([]string, error) {
	rows, err := l.Sheets.Read(ctx, l.InputSpreadsheetID, trackingIDRange)
	if err != nil {
		return nil, fmt.Errorf("loading tracking ids: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	var ids []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	logger.Info("imported tracking ids", "ids", len(ids))
	return ids, nil
}

// Folders lists the shipper drop folders under the shared root and
// republishes the folder directory to the shipper_folder tab so operators
// can hand links to shippers.
func (l *Loader) Folders(ctx context.Context) ([]domain.FolderRef, error) {
	files, err := l.Drive.ListChildren(ctx, l.ShipperRootFolderID)
	if err != nil {
		return nil, fmt.Errorf("listing shipper folders: %w", err)
	}

	refs := make([]domain.FolderRef, 0, len(files))
	rows := [][]string{{"folder_link", "folder_name", "created_date", "owner_name"}}
	for _, f := range files {
		ref := domain.FolderRef{
			ID:          f.ID,
			Name:        strings.TrimSpace(f.Name),
			Link:        gdrive.FolderLink(f.ID),
			CreatedDate: f.CreatedDate,
			Owner:       f.Owner,
		}
		refs = append(refs, ref)
		rows = append(rows, []string{ref.Link, ref.Name, ref.CreatedDate, ref.Owner})
	}

	if err := l.Sheets.Overwrite(ctx, l.InputSpreadsheetID, folderTab, rows); err != nil {
		return nil, fmt.Errorf("publishing folder directory: %w", err)
	}

	logger.Info("imported shipper folders", "folders", len(refs))
	return refs, nil
}
