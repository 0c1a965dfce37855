package statement

// Document is the immutable text of one statement: an ordered list of pages,
// each an ordered list of lines.
//
// Documents are never modified once loaded, any number of extractions can read
// the same Document concurrently.
type Document struct {
	Name  string
	pages [][]string
	// offsets[i] is the flat index of the first line of page i.
	offsets []int
	count   int
}

// Pos is the position of a line in a Document. Page and Line are zero based.
type Pos struct {
	Page, Line int
}

// NewDocument returns a Document named name holding pages. The slices are copied.
func NewDocument(name string, pages ...[]string) *Document {
	d := &Document{Name: name}
	for _, p := range pages {
		d.offsets = append(d.offsets, d.count)
		d.pages = append(d.pages, append([]string(nil), p...))
		d.count += len(p)
	}
	return d
}

// Pages returns the number of pages.
func (d *Document) Pages() int { return len(d.pages) }

// Len returns the total number of lines.
func (d *Document) Len() int { return d.count }

// Page returns the lines of page i, or nil if there is no such page.
func (d *Document) Page(i int) []string {
	if i < 0 || i >= len(d.pages) {
		return nil
	}
	return d.pages[i]
}

// At returns the line at page, line.
func (d *Document) At(page, line int) (string, bool) {
	if page < 0 || page >= len(d.pages) || line < 0 || line >= len(d.pages[page]) {
		return "", false
	}
	return d.pages[page][line], true
}

// FindNext returns the position of the first line at or after from that
// satisfies pred.
func (d *Document) FindNext(from Pos, pred func(string) bool) (Pos, bool) {
	i, ok := d.index(from)
	if !ok {
		return Pos{}, false
	}
	for ; i < d.count; i++ {
		if pred(d.line(i)) {
			return d.pos(i), true
		}
	}
	return Pos{}, false
}

// IsPageBoundary reports whether the line before pos is on a different page,
// which is true for the first line of every page but the first one.
func (d *Document) IsPageBoundary(pos Pos) bool {
	i, ok := d.index(pos)
	if !ok || i == 0 {
		return false
	}
	return d.pos(i-1).Page != pos.Page
}

// Text returns all the lines of the document, page after page.
func (d *Document) Text() []string {
	lines := make([]string, 0, d.count)
	for _, p := range d.pages {
		lines = append(lines, p...)
	}
	return lines
}

// index returns the flat index of pos.
func (d *Document) index(pos Pos) (int, bool) {
	if pos.Page < 0 || pos.Page >= len(d.pages) || pos.Line < 0 || pos.Line >= len(d.pages[pos.Page]) {
		return 0, false
	}
	return d.offsets[pos.Page] + pos.Line, true
}

// pos returns the position of flat index i, i must be in [0, count).
func (d *Document) pos(i int) Pos {
	page := len(d.offsets) - 1
	for page > 0 && (d.offsets[page] > i || len(d.pages[page]) == 0) {
		page--
	}
	return Pos{Page: page, Line: i - d.offsets[page]}
}

// line returns the line at flat index i, i must be in [0, count).
func (d *Document) line(i int) string {
	p := d.pos(i)
	return d.pages[p.Page][p.Line]
}

// pageEnd returns the flat index of the last line of the page holding flat index i.
func (d *Document) pageEnd(i int) int {
	p := d.pos(i)
	return d.offsets[p.Page] + len(d.pages[p.Page]) - 1
}
