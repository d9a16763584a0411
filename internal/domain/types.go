// Package domain holds the shared types of the HCO report pipeline.
package domain

import "time"

// Record is one delivery-exception row pulled from the query service.
// The string fields carry the query's values verbatim; CreatedAt is
// normalized by the reconciler. Outcome and Note stay empty until the
// shipper fills them in externally.
type Record struct {
	TrackingID   string
	ShipperID    string
	CustomerName string
	Phone        string
	Address      string
	Instruction  string
	Reason       string
	CreatedAt    string
	Attempts     string
	Outcome      string
	Note         string
}

// Partner is one row of the shipper roster.
type Partner struct {
	ID        string
	Name      string
	ShortName string
	Status    string
}

// StatusOngoing marks an active roster entry; everything else is filtered out.
const StatusOngoing = "ongoing"

// FolderRef is a shipper's Drive drop folder.
type FolderRef struct {
	ID          string
	Name        string
	Link        string
	CreatedDate string
	Owner       string
}

// NewShipper records a folder created this run for a shipper that had none.
type NewShipper struct {
	ShipperID  string
	FolderName string
	FolderLink string
}

// RunStats are the aggregate counters published to the result tab.
type RunStats struct {
	RecordsExported     int
	ReportsExported     int
	ShippersMissingInfo int
	NewShippers         int
}

// RunDate is the single run-scoped timestamp. Every filename, join key and
// published stamp derives from this one value so a run that crosses midnight
// stays internally consistent.
type RunDate struct {
	t time.Time
}

// NewRunDate pins the run to the given instant.
func NewRunDate(t time.Time) RunDate { return RunDate{t: t} }

// Today pins the run to the current wall clock.
func Today() RunDate { return RunDate{t: time.Now()} }

// FileStamp is the DD-MM-YYYY form embedded in report and archive names.
func (d RunDate) FileStamp() string { return d.t.Format("02-01-2006") }

// DayKey is the YYYY-MM-DD form used for internal folder names.
func (d RunDate) DayKey() string { return d.t.Format("2006-01-02") }

// Stamp is the full timestamp written to the result tab.
func (d RunDate) Stamp() string { return d.t.Format("02-01-2006 15:04:05") }

// Time returns the underlying instant.
func (d RunDate) Time() time.Time { return d.t }
