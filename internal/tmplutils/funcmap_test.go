package tmplutils_test

import (
	"testing"

	"github.com/habiliai/aurora/internal/tmplutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tmpl := tmplutils.Must("test", `
{{ .Name | upper }}
{{ bullet .Items }}
{{ quote .Said }}{{ if not .Items }}none{{ end }}
`)

	out, err := tmplutils.Render(tmpl, map[string]any{
		"Name":  "aurora",
		"Items": []string{"tea", "jazz"},
		"Said":  "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "AURORA\n- tea\n- jazz\n\"hi\"", out)

	out, err = tmplutils.Render(tmpl, map[string]any{"Name": "x", "Items": []string{}, "Said": ""})
	require.NoError(t, err)
	assert.Equal(t, "X\n\n\"\"none", out)
}
