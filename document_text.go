package statement

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// PageBreak separates pages in the plain text form of a Document.
const PageBreak = '\f'

// ParseText reads the plain text form of a Document: lines separated by new
// lines, pages separated by a form feed. Lines are normalized to NFC and
// trailing white spaces are removed, PDF converters are not consistent about
// either.
func ParseText(name string, r io.Reader) (*Document, error) {
	var pages [][]string
	var page []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), string(PageBreak))
		for i, part := range parts {
			if i > 0 {
				pages = append(pages, page)
				page = nil
			}
			if part == "" && len(parts) > 1 {
				// the form feed has its own line.
				continue
			}
			page = append(page, normalizeLine(part))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read document %q: %w", name, err)
	}
	if len(page) > 0 || len(pages) == 0 {
		pages = append(pages, page)
	}
	return NewDocument(name, pages...), nil
}

// MustParseText is like ParseText for a string and panics on error.
func MustParseText(name, text string) *Document {
	d, err := ParseText(name, strings.NewReader(text))
	if err != nil {
		panic(err)
	}
	return d
}

func normalizeLine(s string) string {
	s = strings.TrimSuffix(s, "\r")
	return strings.TrimRightFunc(norm.NFC.String(s), unicode.IsSpace)
}
