package schema

import (
	"fmt"
	"strings"
)

// HeaderMap maps column header names to zero-based column indices,
// built from a tab's first row. Row building goes through the map so
// upstream column reordering cannot corrupt writes.
type HeaderMap struct {
	index map[string]int
	width int
}

// NewHeaderMap builds a map from a header row. Header matching is
// case-insensitive and whitespace-trimmed; blank cells are skipped.
func NewHeaderMap(headerRow []string) (*HeaderMap, error) {
	if len(headerRow) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}
	index := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("duplicate header %q at column %d", h, i)
		}
		index[key] = i
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("header row has no named columns")
	}
	return &HeaderMap{index: index, width: len(headerRow)}, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Column returns the index of a named column.
func (m *HeaderMap) Column(name string) (int, bool) {
	i, ok := m.index[normalizeHeader(name)]
	return i, ok
}

// Width returns the number of cells in the header row.
func (m *HeaderMap) Width() int {
	return m.width
}

// Require verifies that every named column exists, returning one error
// listing everything missing. Used for the pre-run configuration check.
func (m *HeaderMap) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := m.Column(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PlaceAll builds a full-width row with each value in its mapped
// column. Unknown column names are an error rather than a silent drop.
func (m *HeaderMap) PlaceAll(values map[string]string) ([]string, error) {
	row := make([]string, m.width)
	for name, v := range values {
		i, ok := m.Column(name)
		if !ok {
			return nil, fmt.Errorf("no column named %q", name)
		}
		row[i] = v
	}
	return row, nil
}

// ColumnLetter converts a zero-based column index to its A1-notation
// letter ("A", "Z", "AA", ...).
func ColumnLetter(index int) string {
	letter := ""
	n := index + 1
	for n > 0 {
		n--
		letter = string(rune('A'+n%26)) + letter
		n /= 26
	}
	return letter
}
