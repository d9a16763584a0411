package gdrive

// Filename date contract. Report and archive names carry the run date as a
// fixed-width DD-MM-YYYY substring at byte offsets the partner workflow
// depends on; the extraction below must stay byte-compatible with the
// established names:
//
//	report   "CO SHOP A 01-09-2026.xlsx"   date at [len-15, len-5)
//	archive  "01-09-2026.zip"              date prefix, first 10 bytes
//	response "01-09-2026_HCO_..."          date prefix, first 10 bytes
//	folder   "CO TONG 2026-09-01"          day key suffix, last 10 bytes

const dateLen = 10

// DateFromReportName extracts the DD-MM-YYYY stamp from a report filename,
// positioned immediately before the ".xlsx" extension.
func DateFromReportName(name string) (string, bool) {
	if len(name) < dateLen+5 {
		return "", false
	}
	return name[len(name)-15 : len(name)-5], true
}

// DatePrefix extracts the leading DD-MM-YYYY stamp of a filename.
func DatePrefix(name string) (string, bool) {
	if len(name) < dateLen {
		return "", false
	}
	return name[:dateLen], true
}

// DaySuffix extracts the trailing YYYY-MM-DD day key of a folder name.
func DaySuffix(name string) (string, bool) {
	if len(name) < dateLen {
		return "", false
	}
	return name[len(name)-dateLen:], true
}
