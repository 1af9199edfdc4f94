// Package markdown рендерит markdown-текст разделов в HTML для предпросмотра.
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	engine     goldmark.Markdown
	engineOnce sync.Once
)

// getEngine парсер без html.WithUnsafe: сырой HTML в тексте не проходит в предпросмотр
func getEngine() goldmark.Markdown {
	engineOnce.Do(func() {
		engine = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return engine
}

// Preview результат рендеринга
type Preview struct {
	HTML     string   `json:"html"`
	Headings []string `json:"headings"`
}

// Render превращает markdown в HTML и собирает заголовки документа
func Render(source string) (*Preview, error) {
	if strings.TrimSpace(source) == "" {
		return &Preview{Headings: []string{}}, nil
	}

	src := []byte(source)
	md := getEngine()
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}

	return &Preview{
		HTML:     buf.String(),
		Headings: headings(doc, src),
	}, nil
}

func headings(doc ast.Node, src []byte) []string {
	out := []string{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
			}
		}
		out = append(out, sb.String())
		return ast.WalkSkipChildren, nil
	})
	return out
}
