// Package render turns cached summaries into an HTML document or terminal
// text for export.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

const dateLayout = "2006-01-02 15:04"

var htmlEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// textEngine only parses; Typographer is left out so quotes stay ASCII.
var textEngine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders one summary body to an HTML fragment. Raw HTML in the
// summary is not passed through.
func Markdown(md string) (string, error) {
	src := strings.TrimSpace(md)
	if src == "" {
		return "", nil
	}
	var out bytes.Buffer
	if err := htmlEngine.Convert([]byte(src), &out); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out.String(), nil
}

// HTML writes a standalone document with one article per summary, in the
// given order.
func HTML(w io.Writer, title string, records []models.CachedSummary) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "My Summaries"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\" />\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", template.HTMLEscapeString(title))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", template.HTMLEscapeString(title))

	if len(records) == 0 {
		b.WriteString("<p>No summaries yet.</p>\n")
	}
	for _, rec := range records {
		body, err := Markdown(rec.Summary)
		if err != nil {
			return fmt.Errorf("summary %s: %w", rec.LectureID, err)
		}
		b.WriteString("<article>\n")
		fmt.Fprintf(&b, "<h2>%s</h2>\n", template.HTMLEscapeString(lectureTitle(rec)))
		fmt.Fprintf(&b, "<p class=\"meta\">%s</p>\n", template.HTMLEscapeString(meta(rec)))
		b.WriteString(body)
		b.WriteString("</article>\n")
	}
	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Text writes the summaries as plain text with markdown syntax removed.
func Text(w io.Writer, records []models.CachedSummary) error {
	var b strings.Builder
	if len(records) == 0 {
		b.WriteString("No summaries yet.\n")
	}
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		heading := lectureTitle(rec)
		b.WriteString(heading + "\n")
		b.WriteString(strings.Repeat("=", len([]rune(heading))) + "\n")
		b.WriteString(meta(rec) + "\n\n")
		b.WriteString(PlainText(rec.Summary))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// PlainText strips markdown from md, keeping one block per line and list
// items prefixed with "- ".
func PlainText(md string) string {
	src := []byte(strings.TrimSpace(md))
	if len(src) == 0 {
		return ""
	}
	doc := textEngine.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(src))
			}
		case *ast.ListItem:
			if entering {
				b.WriteString(strings.Repeat("  ", listDepth(node)) + "- ")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.WriteString("    ")
					b.Write(seg.Value(src))
				}
				return ast.WalkSkipChildren, nil
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(b.String())
}

func listDepth(n ast.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.ListItem); ok {
			depth++
		}
	}
	return depth
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, l)
	}
	res := strings.Join(out, "\n")
	return strings.TrimRight(res, "\n") + "\n"
}

func lectureTitle(rec models.CachedSummary) string {
	if rec.LectureName != "" {
		return rec.LectureName
	}
	return "Lecture " + rec.LectureID
}

func meta(rec models.CachedSummary) string {
	var parts []string
	if rec.CourseName != "" {
		parts = append(parts, rec.CourseName)
	}
	if !rec.CreatedAt.IsZero() {
		parts = append(parts, rec.CreatedAt.In(time.Local).Format(dateLayout))
	}
	return strings.Join(parts, " · ")
}
