// Package reconcile joins query records to the shipper roster and the Drive
// folder listing, and partitions them for export.
//
// The folder join is by derived name ("CO " + transliterated short name), not
// by any stable identifier, since Drive offers no foreign key to the roster. A
// shipper rename or a transliteration collision breaks this match; that is a
// known limitation of the workflow, documented rather than worked around.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
)

// folderPrefix tags every shipper drop folder.
const folderPrefix = "CO "

// Record timestamp formats: the query emits RFC3339-ish local times, the
// reports carry a plain date-time.
const (
	createdAtWire   = "2006-01-02T15:04:05"
	createdAtReport = "2006-01-02 15:04:05"
)

// ResolvedRecord is a record joined to its shipper, and to a drop folder
// when one exists.
type ResolvedRecord struct {
	domain.Record
	Partner     domain.Partner
	FolderKey   string // derived folder name, the join key
	FolderID    string // empty until a folder is resolved or created
	FolderLink  string
	DisplayName string // partner display name + run date; also the report filename
}

// Result partitions the input records. Every input record lands in exactly
// one of the three sets.
type Result struct {
	Resolved      []ResolvedRecord // shipper and folder both matched
	NewPartner    []ResolvedRecord // shipper matched, no folder yet
	NoShipperInfo []domain.Record  // shipper lookup failed
}

// FolderKey derives the drop-folder name for a shipper short name:
// transliterated to ASCII, uppercased, prefixed.
func FolderKey(shortName string) string {
	return folderPrefix + strings.ToUpper(unidecode.Unidecode(strings.TrimSpace(shortName)))
}

// DisplayName synthesizes the localized partner display name stamped with
// the run date. It doubles as the report filename, so the original casing of
// the short name is kept.
func DisplayName(shortName string, run domain.RunDate) string {
	return folderPrefix + unidecode.Unidecode(strings.TrimSpace(shortName)) + " " + run.FileStamp()
}

// Reconcile joins records to shippers (inner, on shipper id) and to folders
// (by derived name). Fully identical rows are collapsed to one; rows that
// differ in any field are all kept, even under a repeated tracking id.
func Reconcile(records []domain.Record, partners []domain.Partner, folders []domain.FolderRef, run domain.RunDate) Result {
	partnersByID := make(map[string]domain.Partner, len(partners))
	for _, p := range partners {
		partnersByID[p.ID] = p
	}
	foldersByName := make(map[string]domain.FolderRef, len(folders))
	for _, f := range folders {
		foldersByName[f.Name] = f
	}

	var res Result
	seen := make(map[domain.Record]bool, len(records))
	for _, rec := range records {
		if seen[rec] {
			continue
		}
		seen[rec] = true

		partner, ok := partnersByID[strings.TrimSpace(rec.ShipperID)]
		if !ok {
			res.NoShipperInfo = append(res.NoShipperInfo, rec)
			continue
		}

		joined := ResolvedRecord{
			Record:      rec,
			Partner:     partner,
			FolderKey:   FolderKey(partner.ShortName),
			DisplayName: DisplayName(partner.ShortName, run),
		}
		joined.CreatedAt = normalizeCreatedAt(rec.CreatedAt)

		if folder, ok := foldersByName[joined.FolderKey]; ok {
			joined.FolderID = folder.ID
			joined.FolderLink = folder.Link
			res.Resolved = append(res.Resolved, joined)
		} else {
			res.NewPartner = append(res.NewPartner, joined)
		}
	}

	logger.Info("reconciled records",
		"resolved", len(res.Resolved),
		"new_partner", len(res.NewPartner),
		"no_shipper_info", len(res.NoShipperInfo))
	return res
}

func normalizeCreatedAt(raw string) string {
	t, err := time.Parse(createdAtWire, raw)
	if err != nil {
		// Leave unparsable stamps alone rather than failing the record.
		return raw
	}
	return t.Format(createdAtReport)
}

// Group is one shipper's record set keyed by drop-folder name.
type Group struct {
	FolderKey string
	FolderID  string
	Records   []ResolvedRecord
}

// GroupByFolder splits records by folder key, iterated in sorted key order
// so runs are deterministic.
func GroupByFolder(recs []ResolvedRecord) []Group {
	byKey := make(map[string][]ResolvedRecord)
	for _, r := range recs {
		byKey[r.FolderKey] = append(byKey[r.FolderKey], r)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		g := Group{FolderKey: k, Records: byKey[k]}
		g.FolderID = byKey[k][0].FolderID
		groups = append(groups, g)
	}
	return groups
}
