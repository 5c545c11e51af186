// Package author parses display names and matches them against author
// filters given on the command line.
package author

import (
	"strings"

	"github.com/matsen/scholargraph/internal/paper"
)

// Query is a name split into given names and surname. Last is empty only
// for a blank input.
type Query struct {
	First string
	Last  string
}

// ParseQuery splits a name. "Bloom, Jesse D" is read as surname first;
// otherwise the final word is the surname, so "Jesse D Bloom" gives
// First "Jesse D" and a single word is a bare surname.
func ParseQuery(input string) Query {
	if last, first, ok := strings.Cut(input, ","); ok && strings.TrimSpace(last) != "" {
		return Query{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}

	words := strings.Fields(input)
	switch len(words) {
	case 0:
		return Query{}
	case 1:
		return Query{Last: words[0]}
	}
	n := len(words) - 1
	return Query{First: strings.Join(words[:n], " "), Last: words[n]}
}

// IsEmpty reports whether the query has no surname.
func (q Query) IsEmpty() bool {
	return q.Last == ""
}

// Matches compares surnames case-insensitively and exactly, then requires
// the author's given names to start with q.First when it is set. "Tim Yu"
// matches "Timothy C Yu"; "Yu" never matches "Yujia Chan".
func (q Query) Matches(a paper.Author) bool {
	if q.IsEmpty() {
		return false
	}
	name := ParseQuery(a.Name)
	if !strings.EqualFold(q.Last, name.Last) {
		return false
	}
	return q.First == "" || strings.HasPrefix(strings.ToLower(name.First), strings.ToLower(q.First))
}

// MatchesAny reports whether any author matches.
func (q Query) MatchesAny(authors []paper.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch reports whether every query matches some author.
func AllMatch(queries []Query, authors []paper.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}

// Filter keeps the papers satisfying every query, in order. No queries
// keeps every paper.
func Filter(papers []paper.Paper, queries []Query) []paper.Paper {
	var out []paper.Paper
	for _, p := range papers {
		if AllMatch(queries, p.Authors) {
			out = append(out, p)
		}
	}
	return out
}
