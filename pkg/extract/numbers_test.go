package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xerrors "xwatch/pkg/errors"
)

func TestConvertLikesToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2.5K", 2500},
		{"1.2M", 1200000},
		{"1,234", 1234},
		{"abc", 0},
		{"", 0},
		{"0", 0},
		{"987", 987},
		{"12k", 12000},
		{" 3m ", 3000000},
		{"1,2K", 12000},
		{"K", 0},
		{"-5", 0},
		{"-1.5K", 0},
		{"1e3K", 0},
		{"NaNK", 0},
		{"InfM", 0},
		{"12.7", 0},
		{"99999999999999999999", 0},
		{"99999999999999999999M", 0},
		{"1.5KM", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertLikesToNumber(tt.in))
		})
	}
}

func TestConvertLikesToNumberIsTotal(t *testing.T) {
	inputs := []string{"\x00", "🙂", "1..2K", ".K", "٣", "1_000", "+5", "0x10", "  ", "k1"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			assert.GreaterOrEqual(t, ConvertLikesToNumber(in), int64(0))
		})
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://x.com/jack/status/1234567", want: "1234567"},
		{url: "/jack/status/20", want: "20"},
		{url: "https://x.com/jack/status/1790000000000000001/photo/1", want: "1"},
		{url: "https://x.com/jack/status/1790000000000000001/analytics", want: "1790000000000000001"},
		{url: "https://x.com/jack/status/42?s=20", want: "42"},
		{url: "https://x.com/jack/status/abc", wantErr: true},
		{url: "https://x.com/jack", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, err := ExtractPostID(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, xerrors.Is(err, xerrors.ErrorTypeIdentifierParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
