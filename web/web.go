// Package web embeds the HTML templates served by the blog.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var files embed.FS

// Templates returns the template tree rooted at the templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewEngine returns the html engine over the embedded templates. Template
// names are paths without the extension, e.g. "posts/new".
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(Templates()), ".html")
	engine.AddFunc("date", func(t time.Time) string {
		return t.Format("2 January 2006")
	})
	engine.AddFunc("linebreaks", func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	})
	engine.AddFunc("selected", func(value any, id uint) bool {
		s, _ := value.(string)
		return s != "" && s == strconv.FormatUint(uint64(id), 10)
	})
	return engine
}
