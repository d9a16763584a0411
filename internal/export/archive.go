package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
)

// internalFolderPrefix names the dated internal archive folders.
const internalFolderPrefix = "CO TONG "

// Archiver bundles the run's report files into one zip and stores it in the
// internal-only folder tree, one dated subfolder per day.
type Archiver struct {
	Store            FolderStore
	ScratchDir       string
	InternalFolderID string
	Run              domain.RunDate
}

// Archive zips every report in the scratch dir and uploads it, replacing
// any archive already uploaded today. The dated subfolder is created lazily.
func (a *Archiver) Archive(ctx context.Context) error {
	zipName := a.Run.FileStamp() + ".zip"
	zipPath := filepath.Join(a.ScratchDir, zipName)
	if err := a.writeZip(zipPath); err != nil {
		return err
	}

	folderID, err := a.findTodayFolder(ctx)
	if err != nil {
		return err
	}
	if folderID == "" {
		folder, err := a.Store.CreateFolder(ctx, a.InternalFolderID, internalFolderPrefix+a.Run.DayKey())
		if err != nil {
			return fmt.Errorf("creating internal folder: %w", err)
		}
		folderID = folder.ID
	}

	f, err := os.Open(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if _, err := a.Store.Upload(ctx, folderID, zipName, f); err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}
	logger.Info("archived run reports", "archive", zipName)
	return nil
}

// findTodayFolder locates the internal subfolder for this run's date and
// deletes any archive already uploaded today inside it.
func (a *Archiver) findTodayFolder(ctx context.Context) (string, error) {
	folders, err := a.Store.ListChildren(ctx, a.InternalFolderID)
	if err != nil {
		return "", fmt.Errorf("listing internal folders: %w", err)
	}

	for _, folder := range folders {
		day, ok := gdrive.DaySuffix(folder.Name)
		if !ok || day != a.Run.DayKey() {
			continue
		}

		files, err := a.Store.ListChildren(ctx, folder.ID)
		if err != nil {
			return "", fmt.Errorf("listing internal folder %q: %w", folder.Name, err)
		}
		for _, f := range files {
			date, ok := gdrive.DatePrefix(f.Name)
			if !ok || date != a.Run.FileStamp() {
				continue
			}
			if err := a.Store.Delete(ctx, f.ID); err != nil {
				return "", fmt.Errorf("deleting duplicate archive %q: %w", f.Name, err)
			}
			logger.Info("deleted same-day archive", "name", f.Name)
		}
		return folder.ID, nil
	}
	return "", nil
}

func (a *Archiver) writeZip(zipPath string) error {
	reports, err := filepath.Glob(filepath.Join(a.ScratchDir, "*.xlsx"))
	if err != nil {
		return fmt.Errorf("globbing reports: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range reports {
		if err := addToZip(zw, path); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", path, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s to archive: %w", path, err)
	}
	return nil
}

// CleanScratch removes generated report and archive files from the scratch
// dir at the end of a run. Failures are logged, not fatal.
func CleanScratch(dir string) {
	for _, pattern := range []string{"*.xlsx", "*.zip"} {
		paths, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			logger.Warn("scratch cleanup glob failed", "pattern", pattern, "error", err)
			continue
		}
		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				logger.Warn("scratch cleanup failed", "path", path, "error", err)
			}
		}
	}
}
