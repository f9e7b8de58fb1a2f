package onedrive

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// FinancialYear returns the April-to-March financial year containing t,
// as its starting and ending calendar years.
func FinancialYear(t time.Time) (start, end int) {
	start = t.Year()
	if t.Month() < time.April {
		start--
	}
	return start, start + 1
}

// FolderPathFor derives an application's drive folder:
//
//	{root}/FY {start}-{end}/{MM-Month}/{fileNumber}
//
// e.g. Applications/FY 2025-2026/10-October/ULF-0001 for a file created in October 2025.
func FolderPathFor(root string, createdAt time.Time, fileNumber string) string {
	start, end := FinancialYear(createdAt)
	month := fmt.Sprintf("%02d-%s", int(createdAt.Month()), createdAt.Month().String())

	segments := []string{}
	if r := strings.Trim(root, "/ "); r != "" {
		segments = append(segments, r)
	}
	segments = append(segments,
		fmt.Sprintf("FY %d-%d", start, end),
		month,
		sanitizeSegment(fileNumber),
	)
	return path.Join(segments...)
}

// sanitizeSegment replaces characters OneDrive rejects in item names
func sanitizeSegment(s string) string {
	r := strings.NewReplacer(`"`, "_", "*", "_", ":", "_", "<", "_", ">", "_", "?", "_", "/", "_", `\`, "_", "|", "_")
	return strings.TrimSpace(r.Replace(s))
}
