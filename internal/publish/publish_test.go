package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

var testRun = domain.NewRunDate(time.Date(2026, 9, 1, 17, 45, 30, 0, time.Local))

type fakeSheets struct {
	cells     map[string]string
	overwrote map[string][][]string
	appended  map[string][][]string
	updated   map[string][][]string
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		cells:     map[string]string{},
		overwrote: map[string][][]string{},
		appended:  map[string][][]string{},
		updated:   map[string][][]string{},
	}
}

func (f *fakeSheets) ReadCell(_ context.Context, _, cell string) (string, error) {
	return f.cells[cell], nil
}

func (f *fakeSheets) Overwrite(_ context.Context, _, tab string, rows [][]string) error {
	f.overwrote[tab] = rows
	return nil
}

func (f *fakeSheets) Append(_ context.Context, _, a1Range string, rows [][]string) error {
	f.appended[a1Range] = rows
	return nil
}

func (f *fakeSheets) Update(_ context.Context, _, a1Range string, rows [][]string) error {
	f.updated[a1Range] = rows
	return nil
}

func doneRecord(tracking string) reconcile.ResolvedRecord {
	return reconcile.ResolvedRecord{
		Record: domain.Record{
			TrackingID: tracking,
			ShipperID:  "P1",
			Reason:     "Khách hẹn lại",
		},
		Partner:     domain.Partner{ID: "P1", Name: "Shop A Co", ShortName: "Shop A", Status: "ongoing"},
		FolderKey:   "CO SHOP A",
		FolderID:    "f1",
		DisplayName: "CO Shop A 01-09-2026",
	}
}

func newPublisher(sheets *fakeSheets) *Publisher {
	return &Publisher{Sheets: sheets, OutputSpreadsheetID: "out", Run: testRun}
}

func TestPublishSameDayOverwrites(t *testing.T) {
	sheets := newFakeSheets()
	sheets.cells[resultStampCell] = "01-09-2026 08:12:00"

	p := newPublisher(sheets)
	err := p.Publish(context.Background(), []reconcile.ResolvedRecord{doneRecord("NV001")},
		nil, nil, nil, domain.RunStats{})
	require.NoError(t, err)

	rows := sheets.overwrote[doneTab]
	require.Len(t, rows, 2)
	assert.Equal(t, doneColumns, rows[0])
	assert.Empty(t, sheets.appended[doneTab])
}

func TestPublishDifferentDayAppends(t *testing.T) {
	sheets := newFakeSheets()
	sheets.cells[resultStampCell] = "31-08-2026 17:02:11"

	p := newPublisher(sheets)
	err := p.Publish(context.Background(), []reconcile.ResolvedRecord{doneRecord("NV001")},
		nil, nil, nil, domain.RunStats{})
	require.NoError(t, err)

	require.Len(t, sheets.appended[doneTab], 1)
	assert.Nil(t, sheets.overwrote[doneTab])
}

func TestPublishEmptyStampAppends(t *testing.T) {
	sheets := newFakeSheets()

	p := newPublisher(sheets)
	err := p.Publish(context.Background(), []reconcile.ResolvedRecord{doneRecord("NV001")},
		nil, nil, nil, domain.RunStats{})
	require.NoError(t, err)
	assert.Len(t, sheets.appended[doneTab], 1)
}

func TestPublishDoneRowProjection(t *testing.T) {
	sheets := newFakeSheets()
	sheets.cells[resultStampCell] = "01-09-2026 08:12:00"

	p := newPublisher(sheets)
	rec := doneRecord("NV001")
	require.NoError(t, p.Publish(context.Background(), []reconcile.ResolvedRecord{rec},
		nil, nil, nil, domain.RunStats{}))

	row := sheets.overwrote[doneTab][1]
	require.Len(t, row, len(doneColumns))
	assert.Equal(t, "Khách hẹn lại", row[0])
	assert.Equal(t, "NV001", row[1])
	assert.Equal(t, "-", row[2], "empty values are dashed")
	assert.Equal(t, "CO SHOP A", row[13])
	assert.Equal(t, "f1", row[14])
}

func TestPublishStatsAndTabs(t *testing.T) {
	sheets := newFakeSheets()

	p := newPublisher(sheets)
	missing := []domain.Record{{TrackingID: "NV009", ShipperID: "ghost"}}
	created := []domain.NewShipper{{ShipperID: "P7", FolderName: "CO SHOP X",
		FolderLink: "https://drive.google.com/drive/u/0/folders/fx"}}
	stats := domain.RunStats{RecordsExported: 12, ReportsExported: 3, ShippersMissingInfo: 1, NewShippers: 1}

	require.NoError(t, p.Publish(context.Background(), nil, missing, created, nil, stats))

	require.Len(t, sheets.overwrote[missingTab], 2)
	assert.Equal(t, "NV009", sheets.overwrote[missingTab][1][0])

	require.Len(t, sheets.overwrote[newShipperTab], 2)
	assert.Equal(t, []string{"P7", "CO SHOP X", "https://drive.google.com/drive/u/0/folders/fx"},
		sheets.overwrote[newShipperTab][1])

	assert.Equal(t, [][]string{{"01-09-2026 17:45:30"}}, sheets.updated[resultStampCell])
	assert.Equal(t, [][]string{{"12", "3", "1", "1"}}, sheets.updated[resultStatsRange])

	// error_export is cleared down to its header on a clean run.
	require.Len(t, sheets.overwrote[errorTab], 1)
}
