package parcel

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{count: -1, want: 0},
		{count: 0, want: 0},
		{count: 1, want: 1},
		{count: 49, want: 1},
		{count: 50, want: 1},
		{count: 51, want: 2},
		{count: 100, want: 2},
		{count: 120, want: 3},
		{count: 150, want: 3},
		{count: 151, want: 4},
		{count: math.MaxInt, want: math.MaxInt/PageSize + 1},
		{count: math.MaxInt - math.MaxInt%PageSize, want: math.MaxInt / PageSize},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("count_%d", tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.count))
		})
	}
}

func TestAccessToken_StringRedacts(t *testing.T) {
	tok := AccessToken("secret-bearer")

	assert.Equal(t, "[redacted]", tok.String())
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", tok))
	assert.Equal(t, "secret-bearer", tok.Value())
	assert.Equal(t, "", AccessToken("").String())
}

func TestParsePrintOptions(t *testing.T) {
	tests := []struct {
		name      string
		paperSize string
		perPage   string
		want      PrintOptions
		wantErr   bool
	}{
		{name: "defaults", want: PrintOptions{PaperSize: PaperA4, PerPage: 1}},
		{name: "a6 four per page", paperSize: "A6", perPage: "4", want: PrintOptions{PaperSize: PaperA6, PerPage: 4}},
		{name: "lower case trimmed", paperSize: " a6 ", perPage: " 2 ", want: PrintOptions{PaperSize: PaperA6, PerPage: 2}},
		{name: "unknown paper passes through", paperSize: "letter", perPage: "1", want: PrintOptions{PaperSize: "LETTER", PerPage: 1}},
		{name: "non numeric per page", paperSize: "A4", perPage: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrintOptions(tt.paperSize, tt.perPage)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindPrecondition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubset(t *testing.T) {
	listed := []ID{"p1", "p2", "p3"}

	t.Run("keeps selection order and drops duplicates", func(t *testing.T) {
		got, err := Subset(listed, []ID{"p3", "p1", "p3"})
		require.NoError(t, err)
		assert.Equal(t, []ID{"p3", "p1"}, got)
	})

	t.Run("rejects unknown ids", func(t *testing.T) {
		_, err := Subset(listed, []ID{"p1", "x9", "x8"})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindPrecondition))
		assert.Contains(t, err.Error(), "x9, x8")
	})

	t.Run("empty selection yields empty result", func(t *testing.T) {
		got, err := Subset(listed, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestModes(t *testing.T) {
	assert.Equal(t, "new_single", ModeSelected.Folder)
	assert.Equal(t, "single_new_labels.pdf", ModeSelected.Filename)
	assert.Equal(t, "new", ModeBulk.Folder)
	assert.Equal(t, "all_new_labels.pdf", ModeBulk.Filename)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, Strings([]ID{"1", "2"}))
	assert.Empty(t, Strings(nil))
}
