package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMapsEmbed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "iframe snippet reduced to src",
			input: `<iframe src="https://www.google.com/maps/embed?pb=!1m18" width="600" height="450"></iframe>`,
			want:  "https://www.google.com/maps/embed?pb=!1m18",
		},
		{
			name:  "bare embed url kept",
			input: "https://www.google.com/maps/embed?pb=abc",
			want:  "https://www.google.com/maps/embed?pb=abc",
		},
		{
			name:  "empty input allowed",
			input: "",
			want:  "",
		},
		{
			name:    "http rejected",
			input:   `<iframe src="http://www.google.com/maps/embed?pb=abc"></iframe>`,
			wantErr: true,
		},
		{
			name:    "non-google host rejected",
			input:   `<iframe src="https://evil.example.com/maps/embed"></iframe>`,
			wantErr: true,
		},
		{
			name:    "script injection rejected",
			input:   `<script>alert(1)</script>`,
			wantErr: true,
		},
		{
			name:    "non-maps google path rejected",
			input:   "https://www.google.com/search?q=x",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeMapsEmbed(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMapsEmbed)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
