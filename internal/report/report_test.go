package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

var testRun = domain.NewRunDate(time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))

func resolved(tracking string) reconcile.ResolvedRecord {
	return reconcile.ResolvedRecord{
		Record: domain.Record{
			TrackingID:   tracking,
			CustomerName: "Nguyễn Văn A",
			Phone:        "0912345678",
			Address:      "12 Lý Thường Kiệt, Hà Nội",
			Instruction:  "Gọi trước khi giao",
			Reason:       "Khách không nghe máy",
			CreatedAt:    "2026-08-31 22:15:07",
			Attempts:     "2",
		},
		Partner:     domain.Partner{ID: "1", ShortName: "Shop A"},
		FolderKey:   reconcile.FolderKey("Shop A"),
		DisplayName: reconcile.DisplayName("Shop A", testRun),
	}
}

func TestBuildRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := Builder{Dir: dir}

	recs := []reconcile.ResolvedRecord{resolved("NV001"), resolved("NV002")}
	name, err := b.Build(recs)
	require.NoError(t, err)
	assert.Equal(t, "CO Shop A 01-09-2026", name)

	path := filepath.Join(dir, name+".xlsx")
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"NV001", "Nguyễn Văn A", "CO Shop A 01-09-2026", "0912345678",
		"12 Lý Thường Kiệt, Hà Nội", "Gọi trước khi giao", "Khách không nghe máy",
		"2026-08-31 22:15:07", "2",
	}, rows[1][:9])
}

func TestBuildStripsIllegalCharacters(t *testing.T) {
	dir := t.TempDir()
	rec := resolved("NV001")
	rec.Address = "12 L\x00ý Thường Kiệt\x1f"

	name, err := Builder{Dir: dir}.Build([]reconcile.ResolvedRecord{rec})
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(dir, name+".xlsx"))
	require.NoError(t, err)
	defer f.Close()

	addr, err := f.GetCellValue("Sheet1", "E2")
	require.NoError(t, err)
	assert.Equal(t, "12 Lý Thường Kiệt", addr)
}

func TestBuildAddsOutcomeDropdown(t *testing.T) {
	dir := t.TempDir()
	name, err := Builder{Dir: dir}.Build([]reconcile.ResolvedRecord{resolved("NV001")})
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(dir, name+".xlsx"))
	require.NoError(t, err)
	defer f.Close()

	dvs, err := f.GetDataValidations("Sheet1")
	require.NoError(t, err)
	require.Len(t, dvs, 1)
	assert.Equal(t, "J2:J1048576", dvs[0].Sqref)
}

func TestBuildRejectsEmptyGroup(t *testing.T) {
	_, err := Builder{Dir: t.TempDir()}.Build(nil)
	assert.Error(t, err)
}

func TestBuildRejectsMixedDisplayNames(t *testing.T) {
	a := resolved("NV001")
	b := resolved("NV002")
	b.DisplayName = "CO Shop B 01-09-2026"

	_, err := Builder{Dir: t.TempDir()}.Build([]reconcile.ResolvedRecord{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixed display names")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc", Sanitize("a\x00b\x1fc"))
	// Tabs and newlines are legal in cells and survive.
	assert.Equal(t, "a\tb\nc", Sanitize("a\tb\nc"))
	assert.Equal(t, "Tiếng Việt", Sanitize("Tiếng Việt"))
}

func TestParseResponse(t *testing.T) {
	dir := t.TempDir()
	rec := resolved("NV001")
	rec.Outcome = ""
	name, err := Builder{Dir: dir}.Build([]reconcile.ResolvedRecord{rec})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, name+".xlsx"))
	require.NoError(t, err)

	rows, err := ParseResponse(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 12)
	assert.Equal(t, domain.ColTracking, rows[0][0])
	assert.Equal(t, "NV001", rows[1][0])
}

func TestParseResponseRejectsGarbage(t *testing.T) {
	_, err := ParseResponse([]byte("not an xlsx file"))
	assert.Error(t, err)
}
