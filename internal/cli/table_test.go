package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderLines(tw *PlainTableWriter, buf *bytes.Buffer) []string {
	tw.Render()
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestPlainTableWriter_Render(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"name", "Status"})
	tw.AppendRow([]string{"a", "Running"})
	tw.AppendRow([]string{"longer-name", "OK"})

	assert.Equal(t, []string{
		"NAME          STATUS",
		"a             Running",
		"longer-name   OK",
	}, renderLines(tw, &buf))
}

func TestPlainTableWriter_RightAlignedColumn(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"DATE", "TEMP. (C)", "SUMMARY"})
	tw.SetColumnAlign(1, text.AlignRight)
	tw.SetColumnAlign(7, text.AlignRight)
	tw.AppendRow([]string{"2030-01-02", "-5", "Freezing"})
	tw.AppendRow([]string{"2030-01-03", "31", "Hot"})

	assert.Equal(t, []string{
		"DATE         TEMP. (C)   SUMMARY",
		"2030-01-02          -5   Freezing",
		"2030-01-03          31   Hot",
	}, renderLines(tw, &buf))
}

func TestPlainTableWriter_RowShape(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"A", "B"})
	tw.AppendRow([]string{"only"})
	tw.AppendRow([]string{"x", "y", "dropped"})

	require.Len(t, tw.rows, 2)
	assert.Equal(t, []string{"only", ""}, tw.rows[0])
	assert.Equal(t, []string{"x", "y"}, tw.rows[1])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestPlainTableWriter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"NAME", "STATUS"})
	tw.SetNoHeaders(true)

	assert.Empty(t, renderLines(tw, &buf), "nothing to show without rows")

	tw.AppendRow([]string{"server-1", "Running"})
	assert.Equal(t, []string{"server-1   Running"}, renderLines(tw, &buf))
}

func TestPlainTableWriter_HeadersOnly(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"NAME", "STATUS"})

	assert.Equal(t, []string{"NAME   STATUS"}, renderLines(tw, &buf))
}

func TestPlainTableWriter_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	NewPlainTableWriter(&buf).Render()
	assert.Empty(t, buf.String())
}

func TestPlainTableWriter_ColoredCellsAlign(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTableWriter(&buf)
	tw.SetHeaders([]string{"STATUS", "USER"})
	tw.AppendRow([]string{"\x1b[32mAuthenticated\x1b[0m", "alice"})
	tw.AppendRow([]string{"Signed out", "-"})

	assert.Equal(t, len("Authenticated"), tw.columns[0].width)

	lines := renderLines(tw, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Signed out"+"      "+"-", lines[2])
}
