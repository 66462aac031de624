package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// columnGap separates table columns.
const columnGap = "   "

// column is one table column: its header, alignment and widest cell.
type column struct {
	header string
	align  text.Align
	width  int
}

// PlainTableWriter renders borderless kubectl-style tables. Cells may carry
// go-pretty colors; widths ignore the escape sequences.
type PlainTableWriter struct {
	out       io.Writer
	columns   []column
	rows      [][]string
	noHeaders bool
}

// NewPlainTableWriter creates a table writing to out.
func NewPlainTableWriter(out io.Writer) *PlainTableWriter {
	return &PlainTableWriter{out: out}
}

// SetHeaders defines the columns. Headers are upper-cased and every column
// starts left aligned.
func (w *PlainTableWriter) SetHeaders(headers []string) {
	w.columns = make([]column, len(headers))
	for i, h := range headers {
		upper := strings.ToUpper(h)
		w.columns[i] = column{header: upper, width: text.StringWidthWithoutEscSequences(upper)}
	}
}

// SetColumnAlign aligns column i, header included. Out of range is ignored.
func (w *PlainTableWriter) SetColumnAlign(i int, align text.Align) {
	if i >= 0 && i < len(w.columns) {
		w.columns[i].align = align
	}
}

// SetNoHeaders suppresses the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.noHeaders = noHeaders
}

// AppendRow adds a row. Missing cells are blank; cells past the last column
// are dropped.
func (w *PlainTableWriter) AppendRow(cells []string) {
	row := make([]string, len(w.columns))
	for i := range w.columns {
		if i >= len(cells) {
			continue
		}
		row[i] = cells[i]
		w.columns[i].width = max(w.columns[i].width, text.StringWidthWithoutEscSequences(cells[i]))
	}
	w.rows = append(w.rows, row)
}

// Render writes the table. Nothing is written without columns, or without
// rows when headers are suppressed.
func (w *PlainTableWriter) Render() {
	if len(w.columns) == 0 || (w.noHeaders && len(w.rows) == 0) {
		return
	}

	if !w.noHeaders {
		headers := make([]string, len(w.columns))
		for i, c := range w.columns {
			headers[i] = c.header
		}
		w.writeRow(headers)
	}
	for _, row := range w.rows {
		w.writeRow(row)
	}
}

func (w *PlainTableWriter) writeRow(row []string) {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = w.columns[i].align.Apply(cell, w.columns[i].width)
	}
	fmt.Fprintln(w.out, strings.TrimRight(strings.Join(cells, columnGap), " "))
}
