// Package sanitize maps free-form labels (file names, sheet names, header
// cells) to identifiers a sink accepts.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rules describes one sink's naming constraints.
type Rules struct {
	Name   string
	MaxLen int
	// Fold strips accents before cleaning.
	Fold  bool
	clean func(string) string
	// Fallback prefixes the 1-based position of an empty label.
	Fallback string
	// FoldCase treats names differing only in case as the same name, as
	// SQL Server and SQLite compare identifiers.
	FoldCase bool
}

var (
	notCollection = regexp.MustCompile(`[^A-Za-z0-9_\-]`)
	notTable      = regexp.MustCompile(`[^\w\s\-]`)
	notColumn     = regexp.MustCompile(`[^\w\-:./]`)
	spaces        = regexp.MustCompile(`\s+`)
)

var (
	// MongoCollection: at most 120 chars of [A-Za-z0-9_-], never starting
	// with "system".
	MongoCollection = Rules{
		Name:   "mongo_collection",
		MaxLen: 120,
		Fold:   true,
		clean: func(s string) string {
			if strings.HasPrefix(s, "system.") {
				s = "sys_" + s[len("system."):]
			}
			s = notCollection.ReplaceAllString(s, "_")
			if strings.HasPrefix(s, "system_") {
				s = "sys_" + s[len("system_"):]
			}
			return s
		},
		Fallback: "collection",
	}

	// MongoField replaces "." and "$", which the server reads as path and
	// operator syntax.
	MongoField = Rules{
		Name:   "mongo_field",
		MaxLen: 1024,
		clean: func(s string) string {
			return strings.NewReplacer(".", "_", "$", "S_").Replace(s)
		},
		Fallback: "col",
	}

	// SQLTable keeps word characters, spaces and dashes.
	SQLTable = Rules{
		Name:   "sql_table",
		MaxLen: 128,
		Fold:   true,
		clean: func(s string) string {
			return strings.TrimSpace(notTable.ReplaceAllString(s, "_"))
		},
		Fallback: "table",
		FoldCase: true,
	}

	// SQLColumn turns whitespace runs into "_" and keeps word characters
	// plus -:./.
	SQLColumn = Rules{
		Name:   "sql_column",
		MaxLen: 128,
		Fold:   true,
		clean: func(s string) string {
			s = spaces.ReplaceAllString(s, "_")
			return notColumn.ReplaceAllString(s, "_")
		},
		Fallback: "col",
		FoldCase: true,
	}
)

// Sanitizer hands out unique names under one rule set. It is not safe for
// concurrent use.
type Sanitizer struct {
	rules    Rules
	seen     map[string]struct{}
	assigned map[string]string
	n        int
}

// New returns an empty Sanitizer for r.
func New(r Rules) *Sanitizer {
	return &Sanitizer{rules: r, seen: make(map[string]struct{}), assigned: make(map[string]string)}
}

// Name sanitizes label. The same label always gets the same name; a
// different label cleaning to a name already handed out gets the first free
// _1, _2, ... suffix.
func (s *Sanitizer) Name(label string) string {
	s.n++
	if name, ok := s.assigned[label]; ok {
		return name
	}
	base := Clean(s.rules, label)
	blank := base == ""
	if blank {
		base = s.rules.Fallback + "_" + strconv.Itoa(s.n)
	}
	name := base
	for k := 1; ; k++ {
		if _, dup := s.seen[s.key(name)]; !dup {
			break
		}
		suffix := "_" + strconv.Itoa(k)
		name = truncate(base, s.rules.MaxLen-len(suffix)) + suffix
	}
	s.seen[s.key(name)] = struct{}{}
	if !blank {
		s.assigned[label] = name
	}
	return name
}

func (s *Sanitizer) key(name string) string {
	if s.rules.FoldCase {
		return strings.ToLower(name)
	}
	return name
}

// Names sanitizes labels in order; positions count from 1 for fallbacks.
func (s *Sanitizer) Names(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = s.Name(l)
	}
	return out
}

// Clean applies r to label without collision tracking.
func Clean(r Rules, label string) string {
	out := strings.TrimSpace(label)
	if out == "" {
		return ""
	}
	if r.Fold {
		out = fold(out)
	}
	if r.clean != nil {
		out = r.clean(out)
	}
	return truncate(out, r.MaxLen)
}

// fold strips combining marks: "São Paulo" -> "Sao Paulo".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
