package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Plain(t *testing.T) {
	render, err := NewRenderer(60, true)
	require.NoError(t, err)

	out, err := render("# Presentation p1\n\n- `n1` **text** at (10, 20)\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Presentation p1")
	assert.Contains(t, out, "n1")
	assert.NotContains(t, out, "\x1b[", "plain output has no escape sequences")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3", "listening on :8080", "store: memory")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "listening on :8080")
	assert.Contains(t, out, "store: memory")
	assert.Equal(t, len(bannerLines)+5, strings.Count(out, "\n"))
}
