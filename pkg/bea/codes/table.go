// Package codes holds the BEA classification code tables: NAICS sectors,
// subsectors and industry groups, plus the smaller dimensions the API accepts
// (datasets, methods, parameter names, frequencies, investment breakdowns).
//
// Each table maps a stable symbol to a human-readable description and the
// wire code BEA expects. Tables are loaded once from embedded YAML and are
// read-only afterwards, so they are safe for concurrent use.
package codes

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrNoMatch is returned (wrapped in a *NoMatchError) when a name does not
// match any entry of a table.
var ErrNoMatch = errors.New("no matching variant")

// NoMatchError reports a failed Parse against a table.
type NoMatchError struct {
	Table string
	Input string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("codes: %s: no matching variant for %q", e.Table, e.Input)
}

// Is reports whether target is ErrNoMatch.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// Entry is one classification value.
type Entry struct {
	Symbol      string   `yaml:"symbol" json:"symbol"`
	Code        string   `yaml:"code" json:"code"`
	Description string   `yaml:"description" json:"description"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// Lookup is the untyped view of a table, used by the registry and the CLI.
type Lookup interface {
	Name() string
	Title() string
	Len() int
	Entries() []Entry
	// Lookup resolves a wire code first, then a symbol or description.
	Lookup(codeOrName string) (Entry, bool)
}

// Table is an immutable code table whose symbols have type S.
type Table[S ~string] struct {
	name     string
	title    string
	entries  []Entry
	bySymbol map[S]int
	byCode   map[string]int
	byName   map[string]int
}

type tableFile struct {
	Name    string  `yaml:"name"`
	Title   string  `yaml:"title"`
	Entries []Entry `yaml:"entries"`
}

// NewTable builds a table from entries. Empty symbols are derived from the
// description; empty codes default to the symbol. Duplicate symbols or codes
// (aliases included) are rejected.
func NewTable[S ~string](name, title string, entries []Entry) (*Table[S], error) {
	t := &Table[S]{
		name:     name,
		title:    title,
		entries:  make([]Entry, 0, len(entries)),
		bySymbol: make(map[S]int, len(entries)),
		byCode:   make(map[string]int, len(entries)),
		byName:   make(map[string]int, 2*len(entries)),
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Description) == "" {
			return nil, eris.Errorf("codes: %s: entry %d has no description", name, i)
		}
		if e.Symbol == "" {
			e.Symbol = symbolFromDescription(e.Description)
		}
		if e.Code == "" {
			e.Code = e.Symbol
		}

		idx := len(t.entries)
		if _, dup := t.bySymbol[S(e.Symbol)]; dup {
			return nil, eris.Errorf("codes: %s: duplicate symbol %q", name, e.Symbol)
		}
		t.bySymbol[S(e.Symbol)] = idx

		for _, c := range append([]string{e.Code}, e.Aliases...) {
			if _, dup := t.byCode[c]; dup {
				return nil, eris.Errorf("codes: %s: duplicate code %q", name, c)
			}
			t.byCode[c] = idx
		}
		t.entries = append(t.entries, e)
	}

	// Symbols win over descriptions when two entries normalise to the same name.
	for idx, e := range t.entries {
		t.byName[normalizeName(e.Symbol)] = idx
	}
	for idx, e := range t.entries {
		key := normalizeName(e.Description)
		if _, taken := t.byName[key]; !taken {
			t.byName[key] = idx
		}
	}

	return t, nil
}

func loadTable[S ~string](file string) (*Table[S], error) {
	raw, err := dataFS.ReadFile("data/" + file)
	if err != nil {
		return nil, eris.Wrapf(err, "codes: read %s", file)
	}
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, eris.Wrapf(err, "codes: decode %s", file)
	}
	if tf.Name == "" {
		return nil, eris.Errorf("codes: %s: missing table name", file)
	}
	return NewTable[S](tf.Name, tf.Title, tf.Entries)
}

// mustLoad panics on malformed embedded data; the tables ship with the binary.
func mustLoad[S ~string](file string) *Table[S] {
	t, err := loadTable[S](file)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the registry name of the table, e.g. "naics_sector".
func (t *Table[S]) Name() string { return t.name }

// Title returns the human-readable table title.
func (t *Table[S]) Title() string { return t.title }

// Len returns the number of entries.
func (t *Table[S]) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in declaration order.
func (t *Table[S]) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Symbols returns every symbol in declaration order.
func (t *Table[S]) Symbols() []S {
	out := make([]S, len(t.entries))
	for i, e := range t.entries {
		out[i] = S(e.Symbol)
	}
	return out
}

// Contains reports whether s is a symbol of the table.
func (t *Table[S]) Contains(s S) bool {
	_, ok := t.bySymbol[s]
	return ok
}

// Description returns the description of s, or "" when s is not in the table.
func (t *Table[S]) Description(s S) string {
	if idx, ok := t.bySymbol[s]; ok {
		return t.entries[idx].Description
	}
	return ""
}

// Code returns the wire code of s, or "" when s is not in the table.
func (t *Table[S]) Code(s S) string {
	if idx, ok := t.bySymbol[s]; ok {
		return t.entries[idx].Code
	}
	return ""
}

// FromCode resolves a wire code (or alias). Unknown codes report false.
func (t *Table[S]) FromCode(code string) (S, bool) {
	idx, ok := t.byCode[strings.TrimSpace(code)]
	if !ok {
		return "", false
	}
	return S(t.entries[idx].Symbol), true
}

// Parse resolves a symbol or description, ignoring case, spacing and
// punctuation. BEA metadata spells names inconsistently ("TABLENAME",
// "TableName", "Table Name").
func (t *Table[S]) Parse(name string) (S, error) {
	if idx, ok := t.byName[normalizeName(name)]; ok {
		return S(t.entries[idx].Symbol), nil
	}
	return "", &NoMatchError{Table: t.name, Input: name}
}

// Lookup implements the Lookup interface.
func (t *Table[S]) Lookup(codeOrName string) (Entry, bool) {
	if idx, ok := t.byCode[strings.TrimSpace(codeOrName)]; ok {
		return t.entries[idx], true
	}
	if idx, ok := t.byName[normalizeName(codeOrName)]; ok {
		return t.entries[idx], true
	}
	return Entry{}, false
}

// normalizeName folds case and drops everything but letters and digits.
func normalizeName(s string) string {
	folded := cases.Fold().String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// symbolFromDescription turns "Oil and Gas Extraction" into "OilAndGasExtraction".
func symbolFromDescription(desc string) string {
	words := strings.FieldsFunc(desc, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
