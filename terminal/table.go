package terminal

import (
	"fmt"
	"io"
	"strings"
)

// column defines a table column's properties
type column struct {
	header string
	blank  string              // value shown for empty cells, "-" when unset
	format func(string) string // optional colouring, applied after padding widths are known
}

// table renders rows as aligned, space separated columns under a header
type table struct {
	columns []column
	rows    [][]string
	widths  []int
}

func newTable(cols ...column) *table {
	t := &table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}
	for i := range t.columns {
		if t.columns[i].blank == "" {
			t.columns[i].blank = "-"
		}
		t.widths[i] = len(t.columns[i].header)
	}
	return t
}

// addRow adds a row; missing and empty cells show the column's blank value
func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		} else {
			row[i] = t.columns[i].blank
		}
		if n := visibleLength(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

func (t *table) render(w io.Writer) error {
	line := make([]string, len(t.columns))

	for i, col := range t.columns {
		line[i] = pad(col.header, t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(line, " "), " ")); err != nil {
		return err
	}

	for i := range t.columns {
		line[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(line, " ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		for i, val := range row {
			val = pad(val, t.widths[i])
			if f := t.columns[i].format; f != nil {
				val = f(val)
			}
			line[i] = val
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(line, " "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	if n := visibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// visibleLength counts the runes of s outside ANSI colour sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
