// Package gsheets wraps the Sheets API ranges the pipeline reads and writes.
package gsheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client is a Sheets API client authenticated as a service account.
type Client struct {
	svc *sheets.Service
}

// NewClient builds a Sheets client from a service account credentials file.
// The Drive scope covers both APIs, so the same credentials serve gdrive and
// gsheets.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, "https://www.googleapis.com/auth/drive")
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Read returns the values of an A1 range as strings. Trailing empty cells
// within a row are absent, matching the API's sparse responses.
func (c *Client) Read(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", a1Range, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Update writes rows starting at the top-left cell of the given range.
func (c *Client) Update(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, a1Range, valueRange(rows)).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", a1Range, err)
	}
	return nil
}

// Append adds rows after the last non-empty row of the given range.
func (c *Client) Append(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, a1Range, valueRange(rows)).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", a1Range, err)
	}
	return nil
}

// Clear wipes the values of the given range.
func (c *Client) Clear(ctx context.Context, spreadsheetID, a1Range string) error {
	_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, a1Range, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing %s: %w", a1Range, err)
	}
	return nil
}

// Overwrite clears a tab and writes rows from its first cell.
func (c *Client) Overwrite(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	if err := c.Clear(ctx, spreadsheetID, tab); err != nil {
		return err
	}
	return c.Update(ctx, spreadsheetID, tab+"!A1", rows)
}

// ReadCell returns a single cell's value, or "" when the cell is empty.
func (c *Client) ReadCell(ctx context.Context, spreadsheetID, cell string) (string, error) {
	rows, err := c.Read(ctx, spreadsheetID, cell)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		row := make([]interface{}, len(r))
		for j, v := range r {
			row[j] = v
		}
		values[i] = row
	}
	return &sheets.ValueRange{Values: values}
}
