package filter

import (
	"regexp"
	"strings"

	"i18n-refactor/internal/phpscan"
)

// Function and statement names whose arguments are never user-facing text.
// Entries prefixed with "regex:" are used as raw patterns.
var excludedFunctions = []string{
	// Translation.
	"__", "trans", "@lang", "Lang::get",
	// Debug output.
	"var_dump", "dd", "dump", "print_r",
	`regex:\becho\s+`, `regex:\bprint\s+`,
	// Logging.
	"logger", "error_log",
	"Log::emergency", "Log::alert", "Log::critical", "Log::error",
	"Log::warning", "Log::notice", "Log::info", "Log::debug",
}

// Console command output and query builder methods, matched in
// $this->m(, ->m( and ::m( form.
var instanceMethods = []string{
	"info", "error", "line", "comment", "warn", "warning",
	"select", "where", "whereIn", "whereNotIn", "whereBetween", "whereNull", "whereNotNull",
	"orderBy", "groupBy", "having", "join", "leftJoin", "rightJoin",
	"pluck", "value", "raw", "table",
	"format", "validate", "validateWithBag",
}

var regexFunctions = []string{
	"preg_match", "preg_match_all", "preg_replace", "preg_replace_callback",
	"preg_replace_callback_array", "preg_filter", "preg_grep", "preg_split",
}

var builtinFunctions = []string{
	"function_exists", "class_exists", "method_exists", "interface_exists", "trait_exists",
	"defined", "define", "extension_loaded",
	"in_array", "array_key_exists", "array_search", "array_column", "array_filter", "array_map",
	"isset", "empty", "compact", "extract",
	"gettype", "get_class", "get_called_class", "get_parent_class", "is_a", "is_subclass_of",
	"property_exists", "constant", "call_user_func", "call_user_func_array",
	"header", "setcookie", "setrawcookie", "session_name", "session_id", "session_save_path",
	"ini_get", "ini_set", "ini_restore", "putenv", "getenv",
	"file_exists", "is_file", "is_dir", "is_readable", "is_writable", "filetype", "mime_content_type",
	"stream_context_create", "stream_wrapper_register",
	"trigger_error", "user_error", "error_reporting",
	"date", "strtotime", "strftime", "timezone_name_from_abbr",
	"sprintf", "vsprintf", "sscanf", "parse_url", "http_build_query",
}

var laravelHelpers = []string{
	"app_path", "base_path", "config_path", "database_path", "public_path", "resource_path", "storage_path",
	"asset", "secure_asset", "route", "secure_url", "url", "action",
	"config", "env", "session", "old", "request", "view", "response", "redirect", "back",
	"auth", "bcrypt", "hash", "cache", "event", "broadcast", "dispatch", "dispatch_sync", "validator",
	"class_basename", "e", "preg_replace_array", "str", "trans", "trans_choice", "__",
	"data_get", "data_set", "data_fill", "head", "last",
	"abort", "abort_if", "abort_unless", "app", "collect", "cookie", "decrypt", "encrypt",
	"info", "logger", "method_field", "now", "optional", "policy", "resolve", "retry", "tap",
	"throw_if", "throw_unless", "today", "trait_uses_recursive", "transform", "value", "with",
}

// FunctionDef names a method whose whole body is excluded. All three parts
// must match exactly.
type FunctionDef struct {
	Access     string
	Name       string
	ReturnType string
}

// DefaultFunctionDefs lists the Eloquent and form request accessors that only
// ever return configuration arrays.
var DefaultFunctionDefs = []FunctionDef{
	{Access: "protected", Name: "casts", ReturnType: "array"},
	{Access: "public", Name: "rules", ReturnType: "array"},
}

// braceSearchWindow bounds the search for a function body's opening brace.
const braceSearchWindow = 100

// CallSites is the compiled call-site denylist. It is immutable once built
// and safe for concurrent use.
type CallSites struct {
	calls *regexp.Regexp
	defs  []*regexp.Regexp
}

// NewCallSites compiles the default denylist plus extra function names and
// definition signatures.
func NewCallSites(extraFunctions []string, defs []FunctionDef) (*CallSites, error) {
	var patterns []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}

	names := make([]string, 0, len(excludedFunctions)+len(regexFunctions)+len(builtinFunctions)+len(laravelHelpers)+len(extraFunctions))
	names = append(names, excludedFunctions...)
	names = append(names, regexFunctions...)
	names = append(names, builtinFunctions...)
	names = append(names, laravelHelpers...)
	names = append(names, extraFunctions...)
	for _, name := range names {
		add(callPattern(name))
	}
	for _, m := range instanceMethods {
		q := regexp.QuoteMeta(m)
		add(`\$this->` + q + `\s*\(`)
		add(`->` + q + `\s*\(`)
		add(`::` + q + `\s*\(`)
	}

	calls, err := regexp.Compile("(?:" + strings.Join(patterns, ")|(?:") + ")")
	if err != nil {
		return nil, err
	}

	cs := &CallSites{calls: calls}
	for _, d := range defs {
		p := regexp.QuoteMeta(d.Access) + `\s+function\s+\b` + regexp.QuoteMeta(d.Name) +
			`\b\s*\(\s*\)\s*:\s*` + regexp.QuoteMeta(d.ReturnType)
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		cs.defs = append(cs.defs, re)
	}
	return cs, nil
}

// DefaultCallSites returns the built-in denylist.
func DefaultCallSites() *CallSites {
	cs, err := NewCallSites(nil, DefaultFunctionDefs)
	if err != nil {
		panic(err)
	}
	return cs
}

func callPattern(name string) string {
	if p, ok := strings.CutPrefix(name, "regex:"); ok {
		return p
	}
	if strings.Contains(name, "::") || strings.HasPrefix(name, "@") {
		return regexp.QuoteMeta(name) + `\s*\(`
	}
	return `\b` + regexp.QuoteMeta(name) + `\s*\(`
}

// MatchBefore reports whether text preceding a literal on its line contains
// a denylisted call site.
func (cs *CallSites) MatchBefore(before string) bool {
	return cs.calls.MatchString(before)
}

// Zones returns, within the given code spans of text, the extent of every
// denylisted call from the function name to its closing parenthesis and of
// every excluded function definition. Brackets are matched inside the span
// only, so a call left open never reaches past the end of its block.
func (cs *CallSites) Zones(text string, spans phpscan.Ranges) phpscan.Ranges {
	var zones []phpscan.Range
	for _, r := range spans {
		zones = append(zones, cs.spanZones(text[:r.End], r.Start)...)
	}
	return phpscan.Merge(zones)
}

func (cs *CallSites) spanZones(text string, from int) []phpscan.Range {
	var zones []phpscan.Range
	code := text[from:]

	for _, loc := range cs.calls.FindAllStringIndex(code, -1) {
		open := from + loc[1] - 1
		if text[open] != '(' {
			continue
		}
		if end := phpscan.MatchParen(text, open); end > open {
			zones = append(zones, phpscan.Range{Start: from + loc[0], End: end + 1})
		}
	}

	for _, re := range cs.defs {
		for _, loc := range re.FindAllStringIndex(code, -1) {
			open := bodyOpen(text, from+loc[1])
			if open < 0 {
				continue
			}
			if end := phpscan.MatchBrace(text, open); end > open {
				zones = append(zones, phpscan.Range{Start: from + loc[0], End: end + 1})
			}
		}
	}
	return zones
}

// bodyOpen finds the opening brace of a function body within the search
// window. A semicolon first means the method has no body.
func bodyOpen(text string, from int) int {
	limit := min(from+braceSearchWindow, len(text))
	for i := from; i < limit; i++ {
		switch text[i] {
		case '{':
			return i
		case ';':
			return -1
		}
	}
	return -1
}
