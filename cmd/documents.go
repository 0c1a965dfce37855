package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/statement"
	"github.com/ledongthuc/pdf"
)

// documentExts are the extensions of the files read as documents.
var documentExts = []string{".txt", ".pdf", ".json"}

// documentFiles expands directories in paths to the document files they contain.
func documentFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && slices.Contains(documentExts, strings.ToLower(filepath.Ext(e.Name()))) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	return files, nil
}

// LoadDocument reads file name as a document: text files are read as is,
// PDF files row by row and JSON exports with the selector of the first rule
// set they match.
func LoadDocument(name string, ruleSets []*statement.RuleSet) (*statement.Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return readPDF(name)
	case ".json":
		return readJSON(name, ruleSets)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return statement.ParseText(filepath.Base(name), f)
}

func readJSON(name string, ruleSets []*statement.RuleSet) (*statement.Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	for _, rs := range ruleSets {
		if rs.Selector == "" {
			continue
		}
		doc, err := statement.DocumentFromJSON(filepath.Base(name), data, rs.Selector)
		if err != nil {
			slog.Debug("JSON export not read by rule set", "file", name, "rules", rs.Name, "error", err)
			continue
		}
		if rs.Matches(doc) {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, statement.ErrNoRuleSet)
}

// readPDF reads the text of each page of a PDF file, one line per row.
func readPDF(name string) (doc *statement.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot read PDF %q: %v", name, r)
		}
	}()

	f, r, err := pdf.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open PDF %q: %w", name, err)
	}
	defer f.Close()

	// pages are joined with form feeds, ParseText normalizes the lines.
	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if i > 1 {
			text.WriteString(string(statement.PageBreak) + "\n")
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("cannot read page %d of PDF %q: %w", i, name, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(word.S)
			}
			text.WriteByte('\n')
		}
	}
	return statement.ParseText(filepath.Base(name), strings.NewReader(text.String()))
}
