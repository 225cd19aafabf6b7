package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutForStreams(t *testing.T) {
	tests := []struct {
		name           string
		streams        int
		breakPoint     int
		explicit       LayoutType
		wantType       LayoutType
		wantStylesheet bool
	}{
		{"zero streams", 0, 0, "", LayoutCustom, true},
		{"at default break point", 3, 0, "", LayoutCustom, true},
		{"above default break point", 4, 0, "", LayoutBestFit, false},
		{"many streams", 12, 0, "", LayoutBestFit, false},
		{"configured break point lowers the threshold", 3, 2, "", LayoutBestFit, false},
		{"configured break point raises the threshold", 5, 6, "", LayoutCustom, true},
		{"explicit best fit wins over few streams", 1, 0, LayoutBestFit, LayoutBestFit, false},
		{"explicit custom wins over many streams", 8, 0, LayoutCustom, LayoutCustom, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := LayoutForStreams(tt.streams, tt.breakPoint, tt.explicit)
			assert.Equal(t, tt.wantType, layout.Type)
			if tt.wantStylesheet {
				assert.Equal(t, HorizontalStylesheet, layout.Stylesheet)
			} else {
				assert.Empty(t, layout.Stylesheet)
			}
		})
	}
}
