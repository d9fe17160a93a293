package chunker

// BlockType identifies the kind of a semantic block.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockListItem  BlockType = "listItem"
	BlockCode      BlockType = "code"
	BlockOther     BlockType = "other"
)

// Block is the smallest atomic textual unit the assembler treats as
// indivisible. Blocks are immutable once produced by the block parser.
type Block struct {
	Type     BlockType
	Text     string
	Markdown string
	Tokens   int

	// HeadingLevel is set for heading blocks (1..6).
	HeadingLevel int
}

// Chunk is a finalized, token-bounded unit of document text carrying
// heading breadcrumb and cross-chunk overlap context, ready for embedding.
type Chunk struct {
	ID           string   `json:"id"`
	Work         string   `json:"work"`
	Title        string   `json:"title"`
	HeadingPath  []string `json:"headingPath"`
	TotalTokens  int      `json:"totalTokens"`
	RawText      string   `json:"rawText"`
	MarkdownText string   `json:"markdownText"`
}
