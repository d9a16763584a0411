// Package report renders one shipper's record subset as the xlsx file the
// shipper fills in and returns.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/xuri/excelize/v2"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/reconcile"
)

const sheetName = "Sheet1"

// Columns is the fixed output projection. Order matters: the shipper-side
// workflow and the response collector both consume columns by position.
var Columns = []string{
	domain.ColTracking,
	domain.ColCustomer,
	domain.ColPartner,
	domain.ColPhone,
	domain.ColAddress,
	domain.ColInstruction,
	domain.ColReason,
	domain.ColCreated,
	domain.ColAttempts,
	domain.ColOutcome,
	domain.ColNote,
}

var columnWidths = []float64{20, 20, 30, 25, 40, 40, 40, 20, 14, 20, 20}

// outcomeOptions constrains the Kết quả column the shipper fills in.
var outcomeOptions = []string{"Giao lại", "Hoàn hàng", "Khách nhận rồi"}

// outcomeRange spans the whole J column; shippers append rows freely.
const outcomeRange = "J2:J1048576"

// illegalChars matches the control characters xlsx cell values may not
// contain (the openpyxl ILLEGAL_CHARACTERS_RE class).
var illegalChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")

// Sanitize strips xlsx-illegal control characters from a cell value.
func Sanitize(s string) string {
	return illegalChars.ReplaceAllString(s, "")
}

// Builder writes report files into Dir.
type Builder struct {
	Dir string
}

// Build writes one xlsx report for a single shipper's records and returns
// the generated name without extension: the shipper display name, which
// embeds the run date. All records must share one display name; a mixed
// group means the upstream join broke and is reported, not papered over.
func (b Builder) Build(recs []reconcile.ResolvedRecord) (string, error) {
	if len(recs) == 0 {
		return "", fmt.Errorf("report: no records to export")
	}
	name := recs[0].DisplayName
	for _, r := range recs[1:] {
		if r.DisplayName != name {
			return "", fmt.Errorf("report: mixed display names in one group: %q vs %q", name, r.DisplayName)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("report: writing header: %w", err)
	}

	for i, rec := range recs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := projectRow(rec)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return "", fmt.Errorf("report: writing row %d: %w", i+2, err)
		}
	}

	if err := addOutcomeDropdown(f); err != nil {
		return "", err
	}
	if err := styleHeader(f); err != nil {
		return "", err
	}

	path := filepath.Join(b.Dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("report: saving %s: %w", path, err)
	}
	return name, nil
}

func projectRow(rec reconcile.ResolvedRecord) []interface{} {
	values := []string{
		rec.TrackingID,
		rec.CustomerName,
		rec.DisplayName,
		rec.Phone,
		rec.Address,
		rec.Instruction,
		rec.Reason,
		rec.CreatedAt,
		rec.Attempts,
		rec.Outcome,
		rec.Note,
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = Sanitize(v)
	}
	return row
}

func addOutcomeDropdown(f *excelize.File) error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = outcomeRange
	if err := dv.SetDropList(outcomeOptions); err != nil {
		return fmt.Errorf("report: building dropdown: %w", err)
	}
	if err := f.AddDataValidation(sheetName, dv); err != nil {
		return fmt.Errorf("report: adding dropdown: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastCol, style); err != nil {
		return fmt.Errorf("report: styling header: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("report: setting width of %s: %w", col, err)
		}
	}
	return nil
}

// responseColumns is how many leading columns of a returned file the
// collector keeps: the 11 report columns plus one the shippers habitually add.
const responseColumns = 12

// ParseResponse reads a shipper's returned file and projects each row to the
// first 12 columns, padded when short.
func ParseResponse(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("report: opening response: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("report: reading response rows: %w", err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		fixed := make([]string, responseColumns)
		for i := 0; i < responseColumns && i < len(row); i++ {
			fixed[i] = row[i]
		}
		out = append(out, fixed)
	}
	return out, nil
}
