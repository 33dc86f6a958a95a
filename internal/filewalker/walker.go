package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"i18n-refactor/internal/parser"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultPattern selects every PHP source, templates included.
const DefaultPattern = "**/*.php"

// DefaultExcludeDirs lists Laravel directories that never hold application text.
var DefaultExcludeDirs = []string{"vendor", "node_modules", "storage", ".git", "bootstrap/cache"}

// Options controls file discovery.
type Options struct {
	// Pattern is a glob matched against slash separated paths relative to the root.
	Pattern string
	// ExcludeDirs are directory names, or relative paths when they contain a slash.
	ExcludeDirs []string
	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool
}

// Walker traverses directories and dispatches files to the correct parser.
type Walker struct {
	parsers          []parser.Parser
	pattern          string
	include          glob.Glob
	rootInclude      glob.Glob
	excludeDirs      []string
	respectGitignore bool
}

// NewWalker creates a Walker. Parsers are tried in order, so a Blade parser
// must come before the generic PHP one.
func NewWalker(parsers []parser.Parser, opts Options) (*Walker, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	g, err := glob.Compile(opts.Pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", opts.Pattern, err)
	}
	w := &Walker{
		parsers:          parsers,
		pattern:          opts.Pattern,
		include:          g,
		excludeDirs:      opts.ExcludeDirs,
		respectGitignore: opts.RespectGitignore,
	}
	// "**/*.php" should also match "index.php" at the root.
	if simplified, ok := strings.CutPrefix(opts.Pattern, "**/"); ok {
		if rg, err := glob.Compile(simplified, '/'); err == nil {
			w.rootInclude = rg
		}
	}
	return w, nil
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path    string
	RelPath string
	Parser  parser.Parser
}

// Walk discovers all matching files under the given root directory, sorted
// by path.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	gitignore := w.loadGitignore(root)

	var entries []FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if w.IsExcludedDir(rel) || (gitignore != nil && gitignore.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if gitignore != nil && gitignore.MatchesPath(rel) {
			return nil
		}
		if !w.Matches(rel) {
			return nil
		}

		if p := w.parserFor(path); p != nil {
			entries = append(entries, FileEntry{Path: path, RelPath: rel, Parser: p})
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	log.Info().Int("count", len(entries)).Str("root", root).Str("pattern", w.pattern).Msg("Discovered files")
	return entries, nil
}

// Matches reports whether a slash separated relative path matches the
// include pattern.
func (w *Walker) Matches(rel string) bool {
	if w.include.Match(rel) {
		return true
	}
	return w.rootInclude != nil && !strings.Contains(rel, "/") && w.rootInclude.Match(rel)
}

// IsExcludedDir reports whether a slash separated relative directory path
// is excluded.
func (w *Walker) IsExcludedDir(rel string) bool {
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for _, ex := range w.excludeDirs {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if ex == "" {
			continue
		}
		if strings.Contains(ex, "/") {
			if rel == ex || strings.HasSuffix(rel, "/"+ex) {
				return true
			}
			continue
		}
		if base == ex {
			return true
		}
	}
	return false
}

// ParseFile parses a single file using the appropriate parser.
func (w *Walker) ParseFile(entry FileEntry) (*parser.ParseResult, error) {
	return entry.Parser.Parse(entry.Path)
}

func (w *Walker) parserFor(path string) parser.Parser {
	for _, p := range w.parsers {
		if p.CanParse(path) {
			return p
		}
	}
	return nil
}

func (w *Walker) loadGitignore(root string) *ignore.GitIgnore {
	if !w.respectGitignore {
		return nil
	}
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Could not read .gitignore")
		return nil
	}
	return gi
}
