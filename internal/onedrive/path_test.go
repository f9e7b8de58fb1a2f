package onedrive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFinancialYear(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		start, end int
	}{
		{"october", time.Date(2025, time.October, 17, 0, 0, 0, 0, time.UTC), 2025, 2026},
		{"april first", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 2025, 2026},
		{"march last", time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC), 2025, 2026},
		{"january", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), 2023, 2024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := FinancialYear(tt.at)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestFolderPathFor(t *testing.T) {
	tests := []struct {
		name       string
		root       string
		at         time.Time
		fileNumber string
		want       string
	}{
		{
			name:       "standard",
			root:       "Applications",
			at:         time.Date(2025, time.October, 17, 10, 0, 0, 0, time.UTC),
			fileNumber: "ULF-0001",
			want:       "Applications/FY 2025-2026/10-October/ULF-0001",
		},
		{
			name:       "before april",
			root:       "/Applications/",
			at:         time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
			fileNumber: "ULF-0042",
			want:       "Applications/FY 2025-2026/02-February/ULF-0042",
		},
		{
			name:       "no root",
			root:       "",
			at:         time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
			fileNumber: "A-1",
			want:       "FY 2025-2026/05-May/A-1",
		},
		{
			name:       "unsafe characters",
			root:       "Apps",
			at:         time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			fileNumber: "X/1:2",
			want:       "Apps/FY 2025-2026/06-June/X_1_2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FolderPathFor(tt.root, tt.at, tt.fileNumber))
		})
	}
}
