package parser

import "i18n-refactor/internal/position"

// ExtractedText is one user-facing string found in a source file.
type ExtractedText struct {
	// Text is the trimmed string as it appears in the source.
	Text string
	// File is the source file path.
	File string
	// Line is the 1-based line of the first non-blank character.
	Line int
	// Column is the 0-based rune column of the first non-blank character.
	Column int
	// Length is the rune length of Text.
	Length int
}

// ParseResult holds parsing output for a single file.
type ParseResult struct {
	// FilePath is the path the file was read from.
	FilePath string
	// FileType is "blade" or "php".
	FileType string
	// Texts are the extracted strings ordered by position.
	Texts []ExtractedText
	// Source indexes the original file content for context output.
	Source *position.Index
}

// Parser is the interface for all source parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file path.
	CanParse(path string) bool
	// Parse extracts user-facing strings from a file.
	Parse(filePath string) (*ParseResult, error)
}
