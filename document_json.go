package statement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// DocumentFromJSON turns a JSON export into a Document so that it can be
// matched like any text statement.
//
// selector is a JSONPath expression (like "$.transactions[*]") selecting the
// records of the export. Each record becomes one page, with one "key: value"
// line per leaf value, keys sorted, nested keys joined by a dot.
func DocumentFromJSON(name string, data []byte, selector string) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("cannot parse JSON document %q: %w", name, err)
	}
	selected, err := jsonpath.Get(selector, v)
	if err != nil {
		return nil, fmt.Errorf("cannot select %q in %q: %w", selector, name, err)
	}
	records, ok := selected.([]any)
	if !ok {
		records = []any{selected}
	}
	pages := make([][]string, 0, len(records))
	for _, r := range records {
		var lines []string
		flatten("", r, &lines)
		slices.Sort(lines)
		pages = append(pages, lines)
	}
	return NewDocument(name, pages...), nil
}

func flatten(prefix string, v any, lines *[]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			flatten(join(k), e, lines)
		}
	case []any:
		for i, e := range x {
			flatten(join(strconv.Itoa(i)), e, lines)
		}
	case nil:
		*lines = append(*lines, prefix+":")
	default:
		*lines = append(*lines, fmt.Sprintf("%s: %v", prefix, x))
	}
}
