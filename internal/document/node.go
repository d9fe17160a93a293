package document

// NodeType identifies the kind of a parsed document node.
type NodeType string

const (
	NodeHeading     NodeType = "heading"
	NodeParagraph   NodeType = "paragraph"
	NodeList        NodeType = "list"
	NodeCode        NodeType = "code"
	NodeFrontmatter NodeType = "frontmatter"
	NodeOther       NodeType = "other"
)

// ListItem is a single item of a list node, renderable on its own.
type ListItem struct {
	Text     string
	Markdown string
}

// Node is one top-level element of a parsed document, in source order.
// Text is the plain text content; Markdown is the renderable source form.
type Node struct {
	Type     NodeType
	Text     string
	Markdown string

	// Level is set for headings (1..6).
	Level int

	// Language is set for code blocks when the fence carried an info string.
	Language string

	// List attributes, preserved so items can be rendered individually.
	Items   []ListItem
	Ordered bool
	Start   int
	Spread  bool
}
