package gdrive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDateFromReportName(t *testing.T) {
	date, ok := DateFromReportName("CO SHOP A 01-09-2026.xlsx")
	assert.True(t, ok)
	assert.Equal(t, "01-09-2026", date)

	// Multi-word shipper names keep the stamp at the same offset from the end.
	date, ok = DateFromReportName("CO GIAO HANG NHANH 15-12-2026.xlsx")
	assert.True(t, ok)
	assert.Equal(t, "15-12-2026", date)

	_, ok = DateFromReportName("short.xlsx")
	assert.False(t, ok)
}

func TestDatePrefix(t *testing.T) {
	date, ok := DatePrefix("01-09-2026_HCO_shipper_response")
	assert.True(t, ok)
	assert.Equal(t, "01-09-2026", date)

	date, ok = DatePrefix("01-09-2026.zip")
	assert.True(t, ok)
	assert.Equal(t, "01-09-2026", date)

	_, ok = DatePrefix("x.zip")
	assert.False(t, ok)
}

func TestDaySuffix(t *testing.T) {
	day, ok := DaySuffix("CO TONG 2026-09-01")
	assert.True(t, ok)
	assert.Equal(t, "2026-09-01", day)

	_, ok = DaySuffix("short")
	assert.False(t, ok)
}

func TestFolderLink(t *testing.T) {
	assert.Equal(t,
		"https://drive.google.com/drive/u/0/folders/abc123",
		FolderLink("abc123"))
}
