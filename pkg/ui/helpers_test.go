package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/testutil"
)

func TestFitWidth(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		max    int
		suffix string
		want   string
	}{
		{"fits", "hello", 10, "…", "hello"},
		{"exact", "hello", 5, "…", "hello"},
		{"cut", "hello world", 6, "…", "hello…"},
		{"wide runes", "日本語テキスト", 7, "…", "日本語…"},
		{"zero width", "hello", 0, "…", ""},
		{"suffix too wide", "hello", 2, "...", ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitWidth(tt.input, tt.max, tt.suffix))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
	assert.Equal(t, "é ", padRight("é", 2))
	assert.Equal(t, "日本 ", padRight("日本", 5), "wide runes count two cells")
}

func TestFormatPath(t *testing.T) {
	assert.Equal(t, "", FormatPath(nil))
	assert.Equal(t, "1 / docs / 42", FormatPath([]model.NodeID{model.IntID(1), model.StringID("docs"), model.IntID(42)}))
}

func TestNextID(t *testing.T) {
	assert.Equal(t, model.IntID(1), NextID(testutil.Empty()))
	assert.Equal(t, model.IntID(1), NextID(testutil.Sample()), "string ids are ignored")

	gen := testutil.New(testutil.GeneratorConfig{Seed: 1, IntIDs: true})
	tree := gen.Fan(9) // ids 0..9
	assert.Equal(t, model.IntID(10), NextID(tree))
}
