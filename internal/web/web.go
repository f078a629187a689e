// Package web 内嵌表单页面模板。
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

func Templates() *template.Template {
	return template.Must(template.ParseFS(templates, "templates/*.html"))
}
