// Package web 内嵌页面模板和静态资源
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// 页面模板名
const (
	PageHome       = "home.html"
	PageProcessing = "processing.html"
	PageDictation  = "dictation.html"
	PageNotFound   = "not_found.html"
)

// Static 返回 /static/ 下的资源
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Templates 每个页面单独与 base.html 组合解析
type Templates struct {
	pages map[string]*template.Template
}

// LoadTemplates 解析全部页面模板
func LoadTemplates() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageHome, PageProcessing, PageDictation, PageNotFound} {
		tpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败: %w", page, err)
		}
		t.pages[page] = tpl
	}
	return t, nil
}

// Render 渲染页面
func (t *Templates) Render(w io.Writer, page string, data interface{}) error {
	tpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("未知页面模板: %s", page)
	}
	return tpl.ExecuteTemplate(w, "base", data)
}
