package ui

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Success("loaded %d models", 3)
	p.Error("bad %s", "schema")
	p.Warning("careful")
	p.List([]string{"author", "comments"})

	out := buf.String()
	assert.Contains(t, out, "loaded 3 models")
	assert.Contains(t, out, "bad schema")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "  • author\n")
	assert.Contains(t, out, "  • comments\n")
}

func TestPrinterTable(t *testing.T) {
	pterm.DisableColor()
	t.Cleanup(pterm.EnableColor)

	var buf bytes.Buffer
	p := New(&buf)
	require.NoError(t, p.Table([]string{"Column", "Type"}, [][]string{{"id", "Int"}, {"title", "String"}}))

	out := buf.String()
	assert.Contains(t, out, "Column")
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "String")
}

func TestHighlightKeepsWords(t *testing.T) {
	out := Highlight(`SELECT "posts".* FROM "posts"`)
	assert.Contains(t, out, `"posts".*`)
	assert.Contains(t, out, "SELECT")
}
