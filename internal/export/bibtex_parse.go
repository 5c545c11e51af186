package export

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/scholargraph/internal/paper"
)

var (
	entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)
	doiFieldRegex   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// BibTeXIndex indexes the entries of an existing .bib file so an export can
// skip papers already present.
type BibTeXIndex struct {
	Keys map[string]bool   // Citation keys
	DOIs map[string]string // Normalized DOI to citation key
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// Has reports whether the paper is already in the index. The DOI is the
// primary match and the citation key the fallback.
func (idx *BibTeXIndex) Has(p paper.Paper) bool {
	if p.DOI != "" {
		if _, ok := idx.DOIs[normalizeDOI(p.DOI)]; ok {
			return true
		}
	}
	return idx.Keys[CitationKey(p)]
}

// Add records a paper in the index.
func (idx *BibTeXIndex) Add(p paper.Paper) {
	key := CitationKey(p)
	idx.Keys[key] = true
	if doi := normalizeDOI(p.DOI); doi != "" {
		idx.DOIs[doi] = key
	}
}

// FilterNew returns the papers not yet in the index, adding each to it so
// duplicates within papers are dropped too.
func (idx *BibTeXIndex) FilterNew(papers []paper.Paper) []paper.Paper {
	var out []paper.Paper
	for _, p := range papers {
		if idx.Has(p) {
			continue
		}
		idx.Add(p)
		out = append(out, p)
	}
	return out
}

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("opening bib file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}

		if matches := doiFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			doi := normalizeDOI(matches[1])
			if doi != "" && currentKey != "" {
				idx.DOIs[doi] = currentKey
			}
		}
	}

	return idx, scanner.Err()
}

// normalizeDOI removes resolver prefixes and lowercases a DOI.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

// AppendToBibFile appends BibTeX content to a file, creating it if needed.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString("\n" + content)
	return err
}
