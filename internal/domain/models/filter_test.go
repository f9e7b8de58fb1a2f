package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFilter_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        ListFilter
		wantPage  int
		wantLimit int
	}{
		{name: "zero values", in: ListFilter{}, wantPage: 1, wantLimit: 20},
		{name: "negative page", in: ListFilter{Page: -3, Limit: 5}, wantPage: 1, wantLimit: 5},
		{name: "limit capped", in: ListFilter{Page: 2, Limit: 500}, wantPage: 2, wantLimit: 100},
		{name: "huge page clamped", in: ListFilter{Page: math.MaxInt, Limit: 100}, wantPage: MaxPage, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in
			f.ApplyDefaults(20, 100)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantLimit, f.Limit)
		})
	}
}

func TestOffset_NeverNegative(t *testing.T) {
	lf := ListFilter{Page: math.MaxInt, Limit: 100}
	assert.Equal(t, (MaxPage-1)*100, lf.Offset())

	af := ApplicationFilter{Page: math.MaxInt / 2, Limit: 100}
	af.ApplyDefaults(20, 100)
	assert.Equal(t, MaxPage, af.Page)
	assert.Equal(t, (MaxPage-1)*100, af.Offset())

	assert.Equal(t, 0, (&ListFilter{}).Offset())
	assert.Equal(t, 40, (&ListFilter{Page: 3, Limit: 20}).Offset())
}

func TestApplicationFilter_ApplyDefaultsSort(t *testing.T) {
	f := ApplicationFilter{SortBy: "password_hash"}
	f.ApplyDefaults(20, 100)
	assert.Equal(t, SortByCreatedAt, f.SortBy)
	assert.True(t, f.SortDesc)

	f = ApplicationFilter{SortBy: SortByFileNumber}
	f.ApplyDefaults(20, 100)
	assert.Equal(t, SortByFileNumber, f.SortBy)
	assert.False(t, f.SortDesc)
}
