package cgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_RenderPlugsHoles(t *testing.T) {
	tmpl, err := parseTemplate("test", "header\n$$BODY$$\nfooter\n  $$TAIL$$  \n")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BODY", "TAIL"}, tmpl.Holes())

	out, err := tmpl.Render(map[string]string{
		"BODY": "line1\nline2",
		"TAIL": "end",
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, GeneratedBanner, lines[0])
	assert.Contains(t, out, "header\nline1\nline2\nfooter\nend\n")
}

func TestTemplate_DuplicateHole(t *testing.T) {
	_, err := parseTemplate("test", "$$A$$\nmiddle\n$$A$$\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestTemplate_NoHoles(t *testing.T) {
	_, err := parseTemplate("test", "just text\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no holes")
}

func TestTemplate_UnknownHole(t *testing.T) {
	tmpl, err := parseTemplate("test", "$$A$$\n")
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]string{"A": "x", "B": "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `hole "B" is not defined`)
}

func TestTemplate_UnfilledHole(t *testing.T) {
	tmpl, err := parseTemplate("test", "$$A$$\n$$B$$\n")
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]string{"A": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not all holes plugged")
	assert.Contains(t, err.Error(), "B")
}

func TestTemplate_RenderTwice(t *testing.T) {
	tmpl, err := parseTemplate("test", "$$A$$\n")
	require.NoError(t, err)

	first, err := tmpl.Render(map[string]string{"A": "one"})
	require.NoError(t, err)
	second, err := tmpl.Render(map[string]string{"A": "two"})
	require.NoError(t, err)

	assert.Contains(t, first, "one")
	assert.Contains(t, second, "two")
	assert.NotContains(t, second, "one")
}
