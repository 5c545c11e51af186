package author

import (
	"testing"

	"github.com/matsen/scholargraph/internal/paper"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		input string
		want  Query
	}{
		{"Yu", Query{Last: "Yu"}},
		{"Timothy Yu", Query{First: "Timothy", Last: "Yu"}},
		{"Timothy C Yu", Query{First: "Timothy C", Last: "Yu"}},
		{"Yu, Timothy", Query{First: "Timothy", Last: "Yu"}},
		{"  Bloom  ", Query{Last: "Bloom"}},
		{"", Query{}},
		{"   ", Query{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseQuery(tt.input); got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryMatches(t *testing.T) {
	tests := []struct {
		name   string
		query  Query
		author string
		want   bool
	}{
		{"exact last name", Query{Last: "Yu"}, "Timothy C Yu", true},
		{"last name case insensitive", Query{Last: "yu"}, "Timothy Yu", true},
		{"no partial last name", Query{Last: "Yu"}, "Yujia Alina Chan", false},
		{"first and last", Query{First: "Timothy", Last: "Yu"}, "Timothy C Yu", true},
		{"first name prefix", Query{First: "Tim", Last: "Yu"}, "Timothy C Yu", true},
		{"first name mismatch", Query{First: "John", Last: "Yu"}, "Timothy Yu", false},
		{"comma display name", Query{First: "Jesse", Last: "Bloom"}, "Bloom, Jesse D", true},
		{"mononym author", Query{Last: "WHO"}, "WHO", true},
		{"empty query never matches", Query{}, "Timothy Yu", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(paper.Author{Name: tt.author}); got != tt.want {
				t.Errorf("Query%+v.Matches(%q) = %v, want %v", tt.query, tt.author, got, tt.want)
			}
		})
	}
}

func TestAllMatchAndFilter(t *testing.T) {
	bloom := []paper.Author{{Name: "Jesse D Bloom"}, {Name: "Yujia Alina Chan"}, {Name: "Ralph S Baric"}}
	yu := []paper.Author{{Name: "Timothy C Yu"}, {Name: "Jesse D Bloom"}}

	if ParseQuery("Yu").MatchesAny(bloom) {
		t.Error("Yu should not match Yujia Alina Chan")
	}
	if !ParseQuery("Bloom").MatchesAny(bloom) {
		t.Error("Bloom should match Jesse D Bloom")
	}
	if !AllMatch([]Query{{Last: "Bloom"}, {Last: "Yu"}}, yu) {
		t.Error("both authors should match")
	}
	if AllMatch([]Query{{Last: "Bloom"}, {Last: "Yu"}}, bloom) {
		t.Error("Yu is missing from the Bloom paper")
	}
	if !AllMatch(nil, bloom) {
		t.Error("no queries should match everything")
	}

	papers := []paper.Paper{
		{ID: "p1", Authors: bloom},
		{ID: "p2", Authors: yu},
		{ID: "p3"},
	}
	got := Filter(papers, []Query{ParseQuery("Jesse Bloom")})
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("Filter(Bloom) = %v", got)
	}
	got = Filter(papers, []Query{ParseQuery("Tim Yu")})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("Filter(Tim Yu) = %v", got)
	}
	if got := Filter(papers, nil); len(got) != 3 {
		t.Errorf("Filter(nil) kept %d papers, want 3", len(got))
	}
}
