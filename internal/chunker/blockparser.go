package chunker

import (
	"regexp"
	"strings"

	"shelfsearch/internal/document"
	"shelfsearch/internal/token"
)

// SplitConfig bounds block sizes during parsing.
type SplitConfig struct {
	// MaxTokens is the size above which a block split is attempted.
	MaxTokens int
	// TargetTokens is the preferred size of split segments.
	TargetTokens int
}

// BlockParser converts an ordered document-node sequence into an ordered
// sequence of atomic semantic blocks, splitting oversized ones.
type BlockParser struct {
	counter token.Counter
	cfg     SplitConfig
}

// NewBlockParser creates a block parser using the given token counter.
func NewBlockParser(counter token.Counter, cfg SplitConfig) *BlockParser {
	return &BlockParser{counter: counter, cfg: cfg}
}

// Parse converts nodes into blocks in document order.
// Frontmatter nodes are dropped. List nodes are split per item. Any other
// node whose token count exceeds MaxTokens gets a split attempt; when no
// strategy applies the block passes through unsplit.
func (p *BlockParser) Parse(nodes []document.Node) []Block {
	var blocks []Block

	for _, node := range nodes {
		switch node.Type {
		case document.NodeFrontmatter:
			continue

		case document.NodeHeading:
			blocks = append(blocks, Block{
				Type:         BlockHeading,
				Text:         node.Text,
				Markdown:     node.Markdown,
				Tokens:       p.counter.Count(node.Text),
				HeadingLevel: node.Level,
			})

		case document.NodeList:
			for _, item := range node.Items {
				blocks = append(blocks, Block{
					Type:     BlockListItem,
					Text:     item.Text,
					Markdown: item.Markdown,
					Tokens:   p.counter.Count(item.Text),
				})
			}

		default:
			block := Block{
				Type:     blockTypeFor(node.Type),
				Text:     node.Text,
				Markdown: node.Markdown,
				Tokens:   p.counter.Count(node.Text),
			}
			if block.Tokens > p.cfg.MaxTokens {
				blocks = append(blocks, p.split(block, node)...)
			} else {
				blocks = append(blocks, block)
			}
		}
	}

	return blocks
}

func blockTypeFor(t document.NodeType) BlockType {
	switch t {
	case document.NodeParagraph:
		return BlockParagraph
	case document.NodeCode:
		return BlockCode
	default:
		return BlockOther
	}
}

// split attempts to divide an oversized block. A failed split returns the
// original block unsplit; downstream truncation absorbs the overflow.
func (p *BlockParser) split(block Block, node document.Node) []Block {
	switch block.Type {
	case BlockCode:
		if segments := p.splitCode(block.Text); len(segments) > 1 {
			out := make([]Block, 0, len(segments))
			for _, seg := range segments {
				out = append(out, Block{
					Type:     BlockCode,
					Text:     seg,
					Markdown: "```" + node.Language + "\n" + seg + "\n```",
					Tokens:   p.counter.Count(seg),
				})
			}
			return out
		}
	case BlockParagraph:
		if runs := p.splitSentences(block.Text); len(runs) > 1 {
			out := make([]Block, 0, len(runs))
			for _, run := range runs {
				out = append(out, Block{
					Type:     BlockParagraph,
					Text:     run,
					Markdown: run,
					Tokens:   p.counter.Count(run),
				})
			}
			return out
		}
	}
	return []Block{block}
}

// splitCode scans code lines, accumulating a running segment and cutting it
// once the segment exceeds the target token count and the current line is
// blank (a cheap proxy for a natural break). A single resulting segment
// means the block is unsplittable.
func (p *BlockParser) splitCode(code string) []string {
	lines := strings.Split(code, "\n")

	var segments []string
	var current []string

	for _, line := range lines {
		current = append(current, line)
		if strings.TrimSpace(line) != "" {
			continue
		}
		seg := strings.Join(current, "\n")
		if p.counter.Count(seg) > p.cfg.TargetTokens {
			segments = append(segments, strings.TrimRight(seg, "\n"))
			current = nil
		}
	}

	if len(current) > 0 {
		segments = append(segments, strings.Join(current, "\n"))
	}

	return segments
}

// sentenceBoundary is intentionally naive: punctuation followed by
// whitespace. Abbreviations like "Mr." false-split; stored chunk databases
// were built with this behavior, so it stays.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// splitSentences splits a paragraph on sentence boundaries and groups
// consecutive sentences into runs bounded by the target token count, starting
// a new run before any sentence that would overflow the current one.
func (p *BlockParser) splitSentences(text string) []string {
	sentences := splitOnBoundaries(text)
	if len(sentences) <= 1 {
		return sentences
	}

	var runs []string
	var current string
	var currentTokens int

	for _, sentence := range sentences {
		tokens := p.counter.Count(sentence)
		if current != "" && currentTokens+tokens > p.cfg.TargetTokens {
			runs = append(runs, current)
			current = ""
			currentTokens = 0
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
		currentTokens += tokens
	}
	if current != "" {
		runs = append(runs, current)
	}

	return runs
}

// splitOnBoundaries cuts text after each sentence boundary, keeping the
// terminating punctuation with its sentence.
func splitOnBoundaries(text string) []string {
	matches := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, m := range matches {
		// m[0]+1 is just past the punctuation character.
		end := m[0] + 1
		sentence := strings.TrimSpace(text[start:end])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = m[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}
