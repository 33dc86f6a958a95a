package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newWalker(t *testing.T, opts Options) *Walker {
	t.Helper()
	f := filter.New()
	w, err := NewWalker([]parser.Parser{parser.NewBladeParser(f), parser.NewPHPParser(f)}, opts)
	require.NoError(t, err)
	return w
}

func relPaths(entries []FileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.RelPath)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.php":                         "<?php echo 1;",
		"app/Http/Controller.php":           "<?php",
		"resources/views/home.blade.php":    "<p>Hi</p>",
		"resources/views/README.md":         "docs",
		"vendor/laravel/framework/Foo.php":  "<?php",
		"storage/framework/views/cache.php": "<?php",
		"bootstrap/cache/services.php":      "<?php",
		"bootstrap/app.php":                 "<?php",
		"generated/Skip.php":                "<?php",
		".gitignore":                        "generated/\n",
	})

	w := newWalker(t, Options{ExcludeDirs: DefaultExcludeDirs, RespectGitignore: true})
	entries, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app/Http/Controller.php",
		"bootstrap/app.php",
		"index.php",
		"resources/views/home.blade.php",
	}, relPaths(entries))

	for _, e := range entries {
		if e.RelPath == "resources/views/home.blade.php" {
			assert.IsType(t, &parser.BladeParser{}, e.Parser)
		} else {
			assert.IsType(t, &parser.PHPParser{}, e.Parser)
		}
	}
}

func TestWalk_GitignoreDisabled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"generated/Keep.php": "<?php",
		".gitignore":         "generated/\n",
	})

	w := newWalker(t, Options{})
	entries, err := w.Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"generated/Keep.php"}, relPaths(entries))
}

func TestWalk_BladeOnlyPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"welcome.blade.php":              "",
		"resources/views/a.blade.php":    "",
		"app/Models/User.php":            "",
		"resources/views/partials/b.php": "",
	})

	w := newWalker(t, Options{Pattern: "**/*.blade.php"})
	entries, err := w.Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"resources/views/a.blade.php", "welcome.blade.php"}, relPaths(entries))
}

func TestWalk_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.php")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := newWalker(t, Options{}).Walk(file)
	assert.Error(t, err)

	_, err = newWalker(t, Options{}).Walk(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewWalker_BadPattern(t *testing.T) {
	_, err := NewWalker(nil, Options{Pattern: "[unclosed"})
	assert.Error(t, err)
}

func TestIsExcludedDir(t *testing.T) {
	w := newWalker(t, Options{ExcludeDirs: DefaultExcludeDirs})

	assert.True(t, w.IsExcludedDir("vendor"))
	assert.True(t, w.IsExcludedDir("packages/acme/vendor"))
	assert.True(t, w.IsExcludedDir("bootstrap/cache"))
	assert.False(t, w.IsExcludedDir("bootstrap"))
	assert.False(t, w.IsExcludedDir("app/cache"))
	assert.False(t, w.IsExcludedDir("vendors"))
}
