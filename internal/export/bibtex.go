// Package export renders graph papers as BibTeX.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/scholargraph/internal/author"
	"github.com/matsen/scholargraph/internal/paper"
)

// KeySuffixLen is the number of paper-id characters appended to a citation key.
const KeySuffixLen = 4

// ToBibTeX converts a paper to a BibTeX entry.
func ToBibTeX(p paper.Paper) string {
	entryType := determineEntryType(p)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(p)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(p.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if p.Venue != "" {
		fieldName := "journal"
		switch entryType {
		case "inproceedings":
			fieldName = "booktitle"
		case "misc":
			fieldName = "howpublished"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(p.Venue)))
	}

	if p.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}

	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	}

	if p.OAURL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.OAURL))
	}

	if p.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Abstract)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX.
func ToBibTeXList(papers []paper.Paper) string {
	var entries []string
	for _, p := range papers {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

// CitationKey builds a key of the form Lastname2024-abcd from the first
// author, the year and the start of the paper id. Missing parts are skipped.
func CitationKey(p paper.Paper) string {
	var b strings.Builder
	if len(p.Authors) > 0 {
		b.WriteString(keyChars(author.ParseQuery(p.Authors[0].Name).Last))
	}
	if b.Len() == 0 {
		b.WriteString("Paper")
	}
	if p.Year > 0 {
		b.WriteString(fmt.Sprint(p.Year))
	}
	suffix := keyChars(p.ID)
	if len(suffix) > KeySuffixLen {
		suffix = suffix[:KeySuffixLen]
	}
	if suffix != "" {
		b.WriteString("-" + strings.ToLower(suffix))
	}
	return b.String()
}

// keyChars keeps only ASCII letters and digits.
func keyChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// determineEntryType returns the BibTeX entry type for a paper.
func determineEntryType(p paper.Paper) string {
	venue := strings.ToLower(p.Venue)

	if venue == "" {
		return "misc"
	}

	// Preprints
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	return "article"
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors []paper.Author) string {
	var formatted []string
	for _, a := range authors {
		name := author.ParseQuery(a.Name)
		switch {
		case name.IsEmpty():
			continue
		case name.First != "":
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(name.Last), escapeLatex(name.First)))
		default:
			formatted = append(formatted, escapeLatex(name.Last))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
