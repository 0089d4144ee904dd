package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table renders rows in aligned columns under a highlighted header
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{writer: w, headers: headers}
}

// AddRow adds a row. Cells beyond the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	}
	t.rows = append(t.rows, cells)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header := color.New(color.Bold, color.FgCyan)
	rule := color.New(color.FgHiBlack)

	t.line(widths, t.headers, header)
	separators := make([]string, len(widths))
	for i, width := range widths {
		separators[i] = strings.Repeat("─", width)
	}
	t.line(widths, separators, rule)
	for _, row := range t.rows {
		t.line(widths, row, nil)
	}
}

func (t *Table) line(widths []int, cells []string, c *color.Color) {
	for i, cell := range cells {
		text := cell
		if i < len(cells)-1 {
			text = padRight(cell, widths[i]) + "  "
		}
		if c != nil {
			c.Fprint(t.writer, text)
		} else {
			fmt.Fprint(t.writer, text)
		}
	}
	fmt.Fprintln(t.writer)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// KeyValues renders "key: value" lines with aligned values
type KeyValues struct {
	writer io.Writer
	keys   []string
	values []string
}

// NewKeyValues creates an empty key/value list
func NewKeyValues(w io.Writer) *KeyValues {
	return &KeyValues{writer: w}
}

// Add appends a pair
func (kv *KeyValues) Add(key, value string) {
	kv.keys = append(kv.keys, key)
	kv.values = append(kv.values, value)
}

// Render writes the pairs
func (kv *KeyValues) Render() {
	width := 0
	for _, k := range kv.keys {
		if len(k)+1 > width {
			width = len(k) + 1
		}
	}
	label := color.New(color.FgCyan, color.Bold)
	for i, k := range kv.keys {
		label.Fprint(kv.writer, padRight(k+":", width))
		fmt.Fprintf(kv.writer, " %s\n", kv.values[i])
	}
}
