// Package gdrive wraps the Drive API surface the pipeline needs: folder
// listings, folder creation, file upload/download/delete, and the filename
// date contract shared with the partner-facing folders.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
)

// File is one Drive child entry (file or folder).
type File struct {
	ID          string
	Name        string
	CreatedDate string // YYYY-MM-DD
	Owner       string
}

// Client is a Drive API client authenticated as a service account.
type Client struct {
	svc *drive.Service
}

// NewClient builds a Drive client from a service account credentials file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListChildren lists the non-trashed children of a folder.
func (c *Client) ListChildren(ctx context.Context, parentID string) ([]File, error) {
	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed=false", parentID)).
			Fields("nextPageToken, files(id, name, createdTime, owners(displayName))").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", parentID, err)
		}
		for _, f := range resp.Files {
			file := File{ID: f.Id, Name: f.Name}
			if len(f.CreatedTime) >= 10 {
				file.CreatedDate = f.CreatedTime[:10]
			}
			if len(f.Owners) > 0 {
				file.Owner = f.Owners[0].DisplayName
			}
			files = append(files, file)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return files, nil
		}
	}
}

// CreateFolder creates a folder under the given parent.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (File, error) {
	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: folderMimeType,
	}).Fields("id, name").Context(ctx).Do()
	if err != nil {
		return File{}, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return File{ID: f.Id, Name: f.Name}, nil
}

// Upload stores r as a file named name under parentID and returns the new id.
func (c *Client) Upload(ctx context.Context, parentID, name string, r io.Reader) (string, error) {
	f, err := c.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{parentID},
	}).Media(r).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("uploading %q: %w", name, err)
	}
	return f.Id, nil
}

// Delete permanently removes a file or folder.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if err := c.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting %s: %w", fileID, err)
	}
	return nil
}

// Download returns the raw contents of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileID, err)
	}
	return data, nil
}

// CreateSpreadsheet creates an empty native spreadsheet under parentID and
// returns its document id.
func (c *Client) CreateSpreadsheet(ctx context.Context, parentID, name string) (string, error) {
	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: spreadsheetMimeType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating spreadsheet %q: %w", name, err)
	}
	return f.Id, nil
}

// FolderLink is the shareable URL of a folder, published to the tracking tabs.
func FolderLink(folderID string) string {
	return "https://drive.google.com/drive/u/0/folders/" + folderID
}
