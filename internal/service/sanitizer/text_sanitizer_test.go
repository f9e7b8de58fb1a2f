package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Owner signature missing", "Owner signature missing"},
		{"ampersand survives", "Deed & tax receipt", "Deed & tax receipt"},
		{"tags stripped", "<b>Missing</b> deed", "Missing deed"},
		{"script removed", `<script>alert("x")</script>Check survey`, "Check survey"},
		{"handlers removed", `<img src=x onerror=alert(1)>Page 3`, "Page 3"},
		{"whitespace trimmed", "  note  ", "note"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}
