package document

import "strings"

// ParseText splits plain text into paragraph nodes on runs of blank lines.
// Trailing whitespace inside a paragraph is preserved; only the blank-line
// separators are consumed. Callers pair this with the smaller plain-text
// token budgets.
func ParseText(content []byte) []Node {
	var nodes []Node

	lines := strings.Split(string(content), "\n")
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, "\n")
		nodes = append(nodes, Node{
			Type:     NodeParagraph,
			Text:     text,
			Markdown: text,
		})
		current = nil
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return nodes
}
