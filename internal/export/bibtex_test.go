package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/scholargraph/internal/paper"
)

func TestToBibTeX_BasicArticle(t *testing.T) {
	p := paper.Paper{
		ID:    "abc123def",
		DOI:   "10.1234/test",
		Title: "Test Paper Title",
		Authors: []paper.Author{
			{Name: "John Smith"},
			{Name: "Jane Q. Doe"},
		},
		Abstract: "This is the abstract",
		Venue:    "Nature",
		Year:     2026,
		OAURL:    "https://example.org/paper.pdf",
	}

	got := ToBibTeX(p)

	if !strings.HasPrefix(got, "@article{Smith2026-abc1,") {
		t.Errorf("ToBibTeX() should start with @article{Smith2026-abc1, got:\n%s", got)
	}

	wantFields := []string{
		`author = {Smith, John and Doe, Jane Q.}`,
		`title = {Test Paper Title}`,
		`journal = {Nature}`,
		`year = {2026}`,
		`doi = {10.1234/test}`,
		`url = {https://example.org/paper.pdf}`,
		`abstract = {This is the abstract}`,
	}
	for _, f := range wantFields {
		if !strings.Contains(got, f) {
			t.Errorf("ToBibTeX() missing %q, got:\n%s", f, got)
		}
	}

	if !strings.HasSuffix(strings.TrimSpace(got), "}") {
		t.Errorf("ToBibTeX() should end with }, got:\n%s", got)
	}
}

func TestToBibTeX_Inproceedings(t *testing.T) {
	p := paper.Paper{
		ID:      "conf1",
		Title:   "A Conference Paper",
		Authors: []paper.Author{{Name: "Alice Brown"}},
		Venue:   "Proceedings of ICML 2026",
		Year:    2026,
	}

	got := ToBibTeX(p)

	if !strings.HasPrefix(got, "@inproceedings{Brown2026-conf,") {
		t.Errorf("ToBibTeX() conference paper should be @inproceedings, got:\n%s", got)
	}
	if !strings.Contains(got, `booktitle = {Proceedings of ICML 2026}`) {
		t.Errorf("ToBibTeX() conference paper should use booktitle, got:\n%s", got)
	}
}

func TestToBibTeX_Minimal(t *testing.T) {
	got := ToBibTeX(paper.Paper{ID: "x", Title: "Untitled Work"})

	if !strings.HasPrefix(got, "@misc{Paper-x,") {
		t.Errorf("ToBibTeX() minimal paper should be @misc{Paper-x, got:\n%s", got)
	}
	for _, field := range []string{"author = ", "year = ", "doi = ", "abstract = ", "journal = ", "url = "} {
		if strings.Contains(got, field) {
			t.Errorf("ToBibTeX() should not include empty %q, got:\n%s", field, got)
		}
	}
}

func TestDetermineEntryType(t *testing.T) {
	tests := []struct {
		venue string
		want  string
	}{
		{"Nature", "article"},
		{"bioRxiv", "article"},
		{"arXiv", "article"},
		{"Proceedings of NeurIPS", "inproceedings"},
		{"International Conference on Machine Learning", "inproceedings"},
		{"Workshop on AI Safety", "inproceedings"},
		{"Symposium on Theory of Computing", "inproceedings"},
		{"", "misc"},
	}

	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			got := determineEntryType(paper.Paper{Venue: tt.venue})
			if got != tt.want {
				t.Errorf("determineEntryType(%q) = %q, want %q", tt.venue, got, tt.want)
			}
		})
	}
}

func TestCitationKey(t *testing.T) {
	tests := []struct {
		name string
		p    paper.Paper
		want string
	}{
		{"full", paper.Paper{ID: "W2741809807", Year: 2017, Authors: []paper.Author{{Name: "Frederick A. Matsen"}}}, "Matsen2017-w274"},
		{"comma name", paper.Paper{ID: "ab", Year: 2020, Authors: []paper.Author{{Name: "Doe, Jane"}}}, "Doe2020-ab"},
		{"non-ascii dropped", paper.Paper{ID: "s2:ffee", Authors: []paper.Author{{Name: "José Müller"}}}, "Mller-s2ff"},
		{"no author", paper.Paper{ID: "p1", Year: 1999}, "Paper1999-p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CitationKey(tt.p); got != tt.want {
				t.Errorf("CitationKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name    string
		authors []paper.Author
		want    string
	}{
		{"single", []paper.Author{{Name: "John Smith"}}, "Smith, John"},
		{"two", []paper.Author{{Name: "John Smith"}, {Name: "Jane Doe"}}, "Smith, John and Doe, Jane"},
		{"mononym", []paper.Author{{Name: "Corporation"}}, "Corporation"},
		{"blank skipped", []paper.Author{{Name: "  "}, {Name: "WHO"}}, "WHO"},
		{"escaped", []paper.Author{{Name: "A_B Team"}}, `Team, A\_B`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAuthors(tt.authors); got != tt.want {
				t.Errorf("formatAuthors() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"100% effective", `100\% effective`},
		{"A & B", `A \& B`},
		{"$100 price", `\$100 price`},
		{"section #1", `section \#1`},
		{"under_score", `under\_score`},
		{"{braces}", `\{braces\}`},
		{"test~tilde", `test\textasciitilde{}tilde`},
		{"x^2", `x\textasciicircum{}2`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := escapeLatex(tt.input); got != tt.want {
				t.Errorf("escapeLatex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToBibTeXList(t *testing.T) {
	papers := []paper.Paper{
		{ID: "a1", Title: "First Paper", Venue: "Cell", Year: 2026, Authors: []paper.Author{{Name: "A B"}}},
		{ID: "c2", Title: "Second Paper", Venue: "Cell", Year: 2025, Authors: []paper.Author{{Name: "C D"}}},
	}

	got := ToBibTeXList(papers)

	if !strings.Contains(got, "@article{B2026-a1,") || !strings.Contains(got, "@article{D2025-c2,") {
		t.Errorf("ToBibTeXList() missing entries, got:\n%s", got)
	}
	if parts := strings.Split(got, "@article{"); len(parts) != 3 {
		t.Errorf("ToBibTeXList() should have 2 entries, got %d", len(parts)-1)
	}
	if got := ToBibTeXList(nil); got != "" {
		t.Errorf("ToBibTeXList(nil) = %q, want empty", got)
	}
}

func TestParseBibTeXFileAndFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	content := `@article{Smith2026-abc1,
  title = {Existing},
  doi = {https://doi.org/10.1234/EXISTING},
}

@misc{Paper-x,
  title = {Keyed only},
}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatalf("ParseBibTeXFile() error = %v", err)
	}
	if !idx.Keys["Smith2026-abc1"] || !idx.Keys["Paper-x"] {
		t.Errorf("Keys = %v", idx.Keys)
	}
	if idx.DOIs["10.1234/existing"] != "Smith2026-abc1" {
		t.Errorf("DOIs = %v", idx.DOIs)
	}

	papers := []paper.Paper{
		{ID: "zzz", DOI: "doi:10.1234/existing", Title: "Same DOI"},
		{ID: "x", Title: "Same key"},
		{ID: "new1", Title: "Fresh"},
		{ID: "new1", Title: "Fresh again"},
	}
	fresh := idx.FilterNew(papers)
	if len(fresh) != 1 || fresh[0].Title != "Fresh" {
		t.Errorf("FilterNew() = %+v, want only the first fresh paper", fresh)
	}

	if err := AppendToBibFile(path, ToBibTeXList(fresh)); err != nil {
		t.Fatalf("AppendToBibFile() error = %v", err)
	}
	again, err := ParseBibTeXFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Has(fresh[0]) {
		t.Error("appended paper should be indexed after re-parsing")
	}

	missing, err := ParseBibTeXFile(filepath.Join(dir, "none.bib"))
	if err != nil || len(missing.Keys) != 0 {
		t.Errorf("ParseBibTeXFile(missing) = %v, %v", missing, err)
	}
}
