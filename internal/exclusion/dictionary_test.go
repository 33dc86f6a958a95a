package exclusion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dict(t *testing.T, lines ...string) *Dictionary {
	t.Helper()
	d := New()
	require.NoError(t, d.Read(strings.NewReader(strings.Join(lines, "\n"))))
	return d
}

func TestShouldExclude_Negation(t *testing.T) {
	d := dict(t, "btn-*", "!btn-important")

	assert.True(t, d.ShouldExclude("btn-primary"))
	assert.False(t, d.ShouldExclude("btn-important"))
	assert.False(t, d.ShouldExclude("Submit"))
}

func TestShouldExclude_NegationTrimmed(t *testing.T) {
	d := dict(t, "btn-*", "! btn-important", "!", "!   ")

	assert.Equal(t, 2, d.Len())
	assert.True(t, d.ShouldExclude("btn-primary"))
	assert.False(t, d.ShouldExclude("btn-important"))
	assert.False(t, d.ShouldExclude(""))
}

func TestShouldExclude_LastMatchWins(t *testing.T) {
	d := dict(t, "!Save", "Save")
	assert.True(t, d.ShouldExclude("Save"))

	d = dict(t, "Save*", "!Save", "Save")
	assert.True(t, d.ShouldExclude("Save"))
	assert.True(t, d.ShouldExclude("Save draft"))
}

func TestShouldExclude_Kinds(t *testing.T) {
	d := dict(t,
		"# comment line",
		"",
		"Dashboard",
		"icon-[a-z]",
		"col-[!x]",
		"regex:[A-Z]{2,}_",
		"What?",
		"{name}",
		"[unclosed",
		"grid-[a-zA-Z]*",
	)

	tests := []struct {
		text string
		want bool
	}{
		{"Dashboard", true},
		{"Dashboard ", false},
		{"dashboard", false},
		{"icon-a", true},
		{"icon-A", false},
		{"icon-ab", false},
		{"col-y", true},
		{"col-x", false},
		{"ERROR_CODE", true},
		{"Prefix ERROR_", false},
		{"What?", true},
		{"Whats", false},
		{"{name}", true},
		{"[unclosed", true},
		{"grid-Main", true},
		{"grid-9", false},
		{"# comment line", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ShouldExclude(tt.text))
		})
	}
}

func TestShouldExclude_InvalidRegexNeverMatches(t *testing.T) {
	d := dict(t, "regex:([", "!regex:(oops")
	assert.Equal(t, 2, d.Len())
	assert.False(t, d.ShouldExclude("(["))
	assert.False(t, d.ShouldExclude("anything"))
}

func TestShouldExclude_NilDictionary(t *testing.T) {
	var d *Dictionary
	assert.False(t, d.ShouldExclude("text"))
	assert.Zero(t, d.Len())
}

func TestShouldExclude_UnicodeGlob(t *testing.T) {
	d := dict(t, "ログ*")
	assert.True(t, d.ShouldExclude("ログイン"))
	assert.False(t, d.ShouldExclude("ロx"))
}

func TestLoad_MultipleFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("label-*\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("!label-keep\n"), 0o644))

	d, err := Load(first, second)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.True(t, d.ShouldExclude("label-drop"))
	assert.False(t, d.ShouldExclude("label-keep"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
