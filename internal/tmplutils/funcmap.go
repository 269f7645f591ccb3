package tmplutils

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/habiliai/aurora/errors"
)

// FuncMap is sprig's text function map plus prompt helpers.
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["bullet"] = func(items []string) string {
		if len(items) == 0 {
			return ""
		}
		return "- " + strings.Join(items, "\n- ")
	}
	return funcs
}

func Must(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(FuncMap()).Parse(text))
}

func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", tmpl.Name())
	}
	return strings.TrimSpace(buf.String()), nil
}
