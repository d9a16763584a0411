// Package export drives the daily report run: building per-shipper files,
// uploading them to the shippers' Drive folders, archiving the batch, and
// publishing the run outcome.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

// FolderStore is the slice of the Drive client the uploader needs.
type FolderStore interface {
	ListChildren(ctx context.Context, parentID string) ([]gdrive.File, error)
	CreateFolder(ctx context.Context, parentID, name string) (gdrive.File, error)
	Upload(ctx context.Context, parentID, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// ReportBuilder renders one shipper's records to a local xlsx file.
type ReportBuilder interface {
	Build(recs []reconcile.ResolvedRecord) (string, error)
}

// Courtesy throttling: brief pauses during bulk Drive traffic. Not a
// correctness requirement.
const (
	existingPauseEvery = 3
	newPauseEvery      = 20
	pauseFor           = time.Second
)

// Uploader pushes report files to shipper folders. Shippers are processed
// independently; one shipper's failure quarantines only that shipper's
// records.
type Uploader struct {
	Store        FolderStore
	Builder      ReportBuilder
	ScratchDir   string
	RootFolderID string
	Run          domain.RunDate

	// Sleep is swappable for tests; nil means time.Sleep.
	Sleep func(time.Duration)

	// pendingNew holds the new-shipper rows of folders created this run
	// whose upload has not succeeded yet, keyed by folder id. A folder
	// created in the first pass must still be reported when only the retry
	// delivers its file.
	pendingNew map[string]domain.NewShipper
}

func (u *Uploader) pause(k, every int) {
	if k%every != 0 {
		return
	}
	if u.Sleep != nil {
		u.Sleep(pauseFor)
		return
	}
	time.Sleep(pauseFor)
}

// ExportExisting handles shippers that already have a drop folder: build the
// file, delete any same-day report at the destination, upload. Returns the
// exported records and the quarantined groups.
func (u *Uploader) ExportExisting(ctx context.Context, groups []reconcile.Group) ([]reconcile.ResolvedRecord, []reconcile.Group) {
	var done []reconcile.ResolvedRecord
	var quarantined []reconcile.Group

	for k, g := range groups {
		if err := u.uploadToFolder(ctx, g.FolderID, g.Records); err != nil {
			logger.Error("shipper export failed", "folder", g.FolderKey, "error", err)
			quarantined = append(quarantined, g)
		} else {
			done = append(done, g.Records...)
		}
		u.pause(k+1, existingPauseEvery)
	}

	logger.Info("existing-folder pass finished",
		"uploaded", len(groups)-len(quarantined), "failed", len(quarantined))
	return done, quarantined
}

// ExportNew handles shippers with no drop folder yet: create the folder
// under the shared root, upload, and emit a new-shipper row for tracking.
func (u *Uploader) ExportNew(ctx context.Context, groups []reconcile.Group) ([]reconcile.ResolvedRecord, []reconcile.Group, []domain.NewShipper) {
	var done []reconcile.ResolvedRecord
	var quarantined []reconcile.Group
	var created []domain.NewShipper

	for k, g := range groups {
		shipper, err := u.uploadToNewFolder(ctx, &g)
		if err != nil {
			logger.Error("new-shipper export failed", "folder", g.FolderKey, "error", err)
			quarantined = append(quarantined, g)
		} else {
			created = append(created, shipper)
			done = append(done, g.Records...)
		}
		u.pause(k+1, newPauseEvery)
	}

	logger.Info("new-folder pass finished",
		"created", len(created), "failed", len(quarantined))
	return done, quarantined, created
}

// RetryFailed gives every quarantined shipper exactly one more attempt.
// Records still failing afterwards are returned; the run must then be
// flagged failed by the caller.
func (u *Uploader) RetryFailed(ctx context.Context, quarantined []reconcile.Group) ([]reconcile.ResolvedRecord, []domain.NewShipper, []reconcile.ResolvedRecord) {
	if len(quarantined) == 0 {
		logger.Info("no quarantined shippers to retry")
		return nil, nil, nil
	}

	var done, failed []reconcile.ResolvedRecord
	var created []domain.NewShipper

	logger.Warn("retrying quarantined shippers", "shippers", len(quarantined))
	for _, g := range quarantined {
		var err error
		if g.FolderID == "" {
			var shipper domain.NewShipper
			shipper, err = u.uploadToNewFolder(ctx, &g)
			if err == nil {
				created = append(created, shipper)
			}
		} else {
			err = u.uploadToFolder(ctx, g.FolderID, g.Records)
			if err == nil {
				if shipper, ok := u.pendingNew[g.FolderID]; ok {
					created = append(created, shipper)
					delete(u.pendingNew, g.FolderID)
				}
			}
		}

		if err != nil {
			logger.Error("retry failed", "folder", g.FolderKey, "error", err)
			failed = append(failed, g.Records...)
		} else {
			done = append(done, g.Records...)
		}
	}
	return done, created, failed
}

// uploadToFolder builds the report, removes any report already stamped with
// the run date, then uploads. The delete prevents duplicate same-day files
// when a run is repeated.
func (u *Uploader) uploadToFolder(ctx context.Context, folderID string, recs []reconcile.ResolvedRecord) error {
	name, err := u.Builder.Build(recs)
	if err != nil {
		return err
	}
	if err := u.deleteSameDay(ctx, folderID); err != nil {
		return err
	}
	return u.uploadFile(ctx, folderID, name)
}

func (u *Uploader) uploadToNewFolder(ctx context.Context, g *reconcile.Group) (domain.NewShipper, error) {
	name, err := u.Builder.Build(g.Records)
	if err != nil {
		return domain.NewShipper{}, err
	}

	folder, err := u.Store.CreateFolder(ctx, u.RootFolderID, g.FolderKey)
	if err != nil {
		return domain.NewShipper{}, err
	}

	// Thread the fresh folder id into the records so the published
	// done_export rows carry it for the response collector.
	g.FolderID = folder.ID
	link := gdrive.FolderLink(folder.ID)
	for i := range g.Records {
		g.Records[i].FolderID = folder.ID
		g.Records[i].FolderLink = link
	}

	shipper := domain.NewShipper{
		ShipperID:  g.Records[0].Partner.ID,
		FolderName: g.FolderKey,
		FolderLink: link,
	}
	if u.pendingNew == nil {
		u.pendingNew = map[string]domain.NewShipper{}
	}
	u.pendingNew[folder.ID] = shipper

	if err := u.uploadFile(ctx, folder.ID, name); err != nil {
		return domain.NewShipper{}, err
	}
	delete(u.pendingNew, folder.ID)

	logger.Info("created shipper folder", "name", g.FolderKey, "link", link)
	return shipper, nil
}

func (u *Uploader) deleteSameDay(ctx context.Context, folderID string) error {
	files, err := u.Store.ListChildren(ctx, folderID)
	if err != nil {
		return fmt.Errorf("listing destination folder: %w", err)
	}
	for _, f := range files {
		date, ok := gdrive.DateFromReportName(f.Name)
		if !ok || date != u.Run.FileStamp() {
			continue
		}
		if err := u.Store.Delete(ctx, f.ID); err != nil {
			return fmt.Errorf("deleting stale report %q: %w", f.Name, err)
		}
		logger.Info("deleted same-day report", "name", f.Name)
	}
	return nil
}

func (u *Uploader) uploadFile(ctx context.Context, folderID, name string) error {
	path := filepath.Join(u.ScratchDir, name+".xlsx")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()

	if _, err := u.Store.Upload(ctx, folderID, name+".xlsx", f); err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}
	return nil
}
