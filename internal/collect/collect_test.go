package collect

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/gdrive"
)

var testRun = domain.NewRunDate(time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))

type fakeDrive struct {
	children   map[string][]gdrive.File
	files      map[string][]byte
	deleted    []string
	created    []string
	listErr    map[string]error
	downErr    map[string]error
	nextSheet  int
	sheetNames map[string]string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		children:   map[string][]gdrive.File{},
		files:      map[string][]byte{},
		listErr:    map[string]error{},
		downErr:    map[string]error{},
		sheetNames: map[string]string{},
	}
}

func (d *fakeDrive) ListChildren(_ context.Context, parentID string) ([]gdrive.File, error) {
	if err := d.listErr[parentID]; err != nil {
		return nil, err
	}
	return d.children[parentID], nil
}

func (d *fakeDrive) Download(_ context.Context, fileID string) ([]byte, error) {
	if err := d.downErr[fileID]; err != nil {
		return nil, err
	}
	data, ok := d.files[fileID]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (d *fakeDrive) Delete(_ context.Context, fileID string) error {
	d.deleted = append(d.deleted, fileID)
	return nil
}

func (d *fakeDrive) CreateSpreadsheet(_ context.Context, parentID, name string) (string, error) {
	d.nextSheet++
	id := fmt.Sprintf("sheet-%d", d.nextSheet)
	d.created = append(d.created, name)
	d.sheetNames[id] = name
	d.children[parentID] = append(d.children[parentID], gdrive.File{ID: id, Name: name})
	return id, nil
}

type fakeSheets struct {
	tabs    map[string][][]string
	updates map[string][][]string
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{tabs: map[string][][]string{}, updates: map[string][][]string{}}
}

func (s *fakeSheets) Read(_ context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	return s.tabs[spreadsheetID+"/"+a1Range], nil
}

func (s *fakeSheets) Update(_ context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	s.updates[spreadsheetID+"/"+a1Range] = rows
	return nil
}

// responseBytes builds a small xlsx the way a shipper's filled-in report
// comes back: a header row and data rows on Sheet1.
func responseBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", addr, &cells))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func doneTabRows(folderIDs ...string) [][]string {
	rows := [][]string{{"Lý do", "Mã", "f_name", "f_id"}}
	for i, id := range folderIDs {
		rows = append(rows, []string{"reason", fmt.Sprintf("TRK%d", i), "CO SHOP", id})
	}
	return rows
}

func newCollector(drive *fakeDrive, sheets *fakeSheets) *Collector {
	return &Collector{
		Drive:               drive,
		Sheets:              sheets,
		OutputSpreadsheetID: "out-sheet",
		ResponseFolderID:    "resp-folder",
		RunDay:              testRun,
	}
}

func TestCollectorConsolidatesResponses(t *testing.T) {
	drive := newFakeDrive()
	sheets := newFakeSheets()
	sheets.tabs["out-sheet/done_export"] = doneTabRows("folder-a", "folder-b")

	header := []string{"Lý do", "Mã", "Tên khách hàng", "Kết quả"}
	drive.children["folder-a"] = []gdrive.File{
		{ID: "file-a", Name: "CO SHOP A 01-09-2026.xlsx"},
		{ID: "file-old", Name: "CO SHOP A 25-08-2026.xlsx"},
	}
	drive.files["file-a"] = responseBytes(t, [][]string{header, {"hỏng", "TRK1", "Anh Ba", "Giao lại"}})
	drive.children["folder-b"] = []gdrive.File{{ID: "file-b", Name: "CO SHOP B 01-09-2026.xlsx"}}
	drive.files["file-b"] = responseBytes(t, [][]string{header, {"sai số", "TRK2", "Chị Tư", ""}})

	c := newCollector(drive, sheets)
	require.NoError(t, c.Run(context.Background()))

	require.Equal(t, []string{"01-09-2026_HCO_shipper_response"}, drive.created)
	rows := sheets.updates["sheet-1/A1"]
	require.Len(t, rows, 3)
	assert.Equal(t, "Lý do", rows[0][0])
	assert.Equal(t, "TRK1", rows[1][1])
	assert.Equal(t, "TRK2", rows[2][1])
	// Empty answers come back as "-" in the consolidated table.
	assert.Equal(t, "-", rows[2][3])
}

func TestCollectorSkipsUnreadableFolders(t *testing.T) {
	drive := newFakeDrive()
	sheets := newFakeSheets()
	sheets.tabs["out-sheet/done_export"] = doneTabRows("folder-a", "folder-broken", "folder-empty", "folder-corrupt")

	header := []string{"Lý do", "Mã"}
	drive.children["folder-a"] = []gdrive.File{{ID: "file-a", Name: "CO SHOP A 01-09-2026.xlsx"}}
	drive.files["file-a"] = responseBytes(t, [][]string{header, {"hỏng", "TRK1"}})

	drive.listErr["folder-broken"] = errors.New("403")

	// folder-empty has no file for today, folder-corrupt has garbage bytes.
	drive.children["folder-empty"] = []gdrive.File{{ID: "f", Name: "CO SHOP C 25-08-2026.xlsx"}}
	drive.children["folder-corrupt"] = []gdrive.File{{ID: "file-x", Name: "CO SHOP D 01-09-2026.xlsx"}}
	drive.files["file-x"] = []byte("not an xlsx")

	c := newCollector(drive, sheets)
	require.NoError(t, c.Run(context.Background()))

	rows := sheets.updates["sheet-1/A1"]
	require.Len(t, rows, 2)
	assert.Equal(t, "TRK1", rows[1][1])
}

func TestCollectorReplacesSameDayOutput(t *testing.T) {
	drive := newFakeDrive()
	sheets := newFakeSheets()
	sheets.tabs["out-sheet/done_export"] = doneTabRows("folder-a")

	drive.children["folder-a"] = []gdrive.File{{ID: "file-a", Name: "CO SHOP A 01-09-2026.xlsx"}}
	drive.files["file-a"] = responseBytes(t, [][]string{{"Lý do"}, {"hỏng"}})
	drive.children["resp-folder"] = []gdrive.File{
		{ID: "stale", Name: "01-09-2026_HCO_shipper_response"},
		{ID: "keep", Name: "25-08-2026_HCO_shipper_response"},
	}

	c := newCollector(drive, sheets)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"stale"}, drive.deleted)
	assert.Equal(t, []string{"01-09-2026_HCO_shipper_response"}, drive.created)
}

func TestCollectorDedupesAndIgnoresDashFolderIDs(t *testing.T) {
	drive := newFakeDrive()
	sheets := newFakeSheets()
	rows := doneTabRows("folder-a", "folder-a")
	rows = append(rows, []string{"r", "TRK9", "CO SHOP", "-"})
	sheets.tabs["out-sheet/done_export"] = rows

	drive.children["folder-a"] = []gdrive.File{{ID: "file-a", Name: "CO SHOP A 01-09-2026.xlsx"}}
	drive.files["file-a"] = responseBytes(t, [][]string{{"Lý do"}, {"hỏng"}})

	c := newCollector(drive, sheets)
	require.NoError(t, c.Run(context.Background()))

	// folder-a listed twice in the ledger still yields one pass.
	require.Len(t, sheets.updates["sheet-1/A1"], 2)
}

func TestCollectorFailsWithoutLedger(t *testing.T) {
	c := newCollector(newFakeDrive(), newFakeSheets())
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "done_export")
}
