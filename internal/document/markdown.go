package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ErrParse is returned when a document cannot be parsed into nodes.
var ErrParse = errors.New("malformed document")

// MarkdownParser converts markdown source into an ordered node sequence
// using goldmark AST parsing.
type MarkdownParser struct {
	parser goldmark.Markdown
}

// NewMarkdownParser creates a new markdown parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Parse converts markdown content into ordered document nodes.
// YAML frontmatter at the top of the document becomes a single frontmatter
// node so downstream consumers can drop it.
func (p *MarkdownParser) Parse(content []byte) ([]Node, error) {
	var nodes []Node

	if fm, rest, ok := splitFrontmatter(content); ok {
		nodes = append(nodes, Node{
			Type:     NodeFrontmatter,
			Text:     fm,
			Markdown: "---\n" + fm + "\n---",
		})
		content = rest
	}

	reader := text.NewReader(content)
	doc := p.parser.Parser().Parse(reader)
	if doc == nil {
		return nil, fmt.Errorf("%w: parser returned no document", ErrParse)
	}

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		node, ok := p.convertNode(child, content)
		if ok {
			nodes = append(nodes, node)
		}
	}

	return nodes, nil
}

// convertNode maps one top-level AST node to a document node.
func (p *MarkdownParser) convertNode(n ast.Node, content []byte) (Node, bool) {
	switch node := n.(type) {
	case *ast.Heading:
		headingText := extractText(node, content)
		return Node{
			Type:     NodeHeading,
			Text:     headingText,
			Markdown: strings.Repeat("#", node.Level) + " " + headingText,
			Level:    node.Level,
		}, true

	case *ast.Paragraph:
		raw := linesString(node, content)
		return Node{
			Type:     NodeParagraph,
			Text:     extractText(node, content),
			Markdown: strings.TrimRight(raw, "\n"),
		}, true

	case *ast.FencedCodeBlock:
		code := linesString(node, content)
		lang := ""
		if node.Info != nil {
			lang = string(node.Language(content))
		}
		return Node{
			Type:     NodeCode,
			Text:     strings.TrimRight(code, "\n"),
			Markdown: "```" + lang + "\n" + code + "```",
			Language: lang,
		}, true

	case *ast.CodeBlock:
		code := linesString(node, content)
		return Node{
			Type:     NodeCode,
			Text:     strings.TrimRight(code, "\n"),
			Markdown: "```\n" + code + "```",
		}, true

	case *ast.List:
		return p.convertList(node, content), true

	case *ast.ThematicBreak:
		return Node{}, false

	default:
		// Blockquotes, HTML blocks, tables and anything else pass through
		// as a single opaque node.
		textContent := extractText(n, content)
		if strings.TrimSpace(textContent) == "" {
			return Node{}, false
		}
		md := linesString(n, content)
		if strings.TrimSpace(md) == "" {
			md = textContent
		}
		return Node{
			Type:     NodeOther,
			Text:     textContent,
			Markdown: strings.TrimRight(md, "\n"),
		}, true
	}
}

// convertList flattens a list node, keeping per-item markdown with the
// original ordered/start attributes so items render individually.
func (p *MarkdownParser) convertList(list *ast.List, content []byte) Node {
	ordered := list.IsOrdered()
	start := list.Start
	if ordered && start == 0 {
		start = 1
	}

	var items []ListItem
	var textParts []string
	var mdParts []string

	i := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		itemText := extractText(item, content)
		prefix := "- "
		if ordered {
			prefix = fmt.Sprintf("%d. ", start+i)
		}
		itemMD := prefix + itemText
		items = append(items, ListItem{Text: itemText, Markdown: itemMD})
		textParts = append(textParts, itemText)
		mdParts = append(mdParts, itemMD)
		i++
	}

	return Node{
		Type:     NodeList,
		Text:     strings.Join(textParts, "\n"),
		Markdown: strings.Join(mdParts, "\n"),
		Items:    items,
		Ordered:  ordered,
		Start:    start,
		Spread:   !list.IsTight,
	}
}

// extractText extracts plain text content from a node and its children.
func extractText(n ast.Node, content []byte) string {
	var builder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			builder.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(builder.String())
}

// linesString concatenates the raw source lines attached to a node.
func linesString(n ast.Node, content []byte) string {
	var builder strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		builder.Write(line.Value(content))
	}
	return builder.String()
}

// splitFrontmatter detects a leading YAML frontmatter block delimited by
// "---" lines. Returns the frontmatter body, the remaining content, and
// whether a block was found.
func splitFrontmatter(content []byte) (string, []byte, bool) {
	src := string(content)
	if !strings.HasPrefix(src, "---\n") {
		return "", content, false
	}

	rest := src[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content, false
	}

	body := rest[:end]
	after := rest[end+len("\n---"):]
	after = strings.TrimPrefix(after, "\n")
	return body, []byte(after), true
}
