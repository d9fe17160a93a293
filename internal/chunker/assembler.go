package chunker

import (
	"strings"

	"github.com/google/uuid"

	"shelfsearch/internal/token"
)

// AssembleConfig bounds chunk sizes during assembly.
type AssembleConfig struct {
	// MaxTokens is the chunk budget; a block that would push the open buffer
	// past it finalizes the buffer first.
	MaxTokens int
	// OverlapTokens bounds the trailing blocks repeated at the start of the
	// next chunk.
	OverlapTokens int
}

// headingEntry is one level of the heading-nesting stack.
type headingEntry struct {
	text  string
	level int
}

// Assembler consumes semantic blocks in document order, maintains a
// heading-nesting stack, and emits finalized chunks with breadcrumb and
// overlap context.
type Assembler struct {
	counter token.Counter
	cfg     AssembleConfig
}

// NewAssembler creates an assembler using the given token counter.
func NewAssembler(counter token.Counter, cfg AssembleConfig) *Assembler {
	return &Assembler{counter: counter, cfg: cfg}
}

// Assemble processes blocks strictly in order and returns finalized chunks
// stamped with the document's work and title.
func (a *Assembler) Assemble(blocks []Block, work, title string) []Chunk {
	var chunks []Chunk

	var stack []headingEntry
	var buffer []Block
	var overlap []Block

	bufferTokens := 0

	for _, block := range blocks {
		if block.Type == BlockHeading {
			// Pop every entry at or below the new level so the stack stays
			// a strict ancestor chain.
			for len(stack) > 0 && stack[len(stack)-1].level >= block.HeadingLevel {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingEntry{text: block.Text, level: block.HeadingLevel})
		}

		if len(buffer) > 0 && bufferTokens+block.Tokens > a.cfg.MaxTokens {
			chunks = append(chunks, a.finalize(stack, overlap, buffer, work, title))
			overlap = a.nextOverlap(buffer)
			buffer = nil
			bufferTokens = 0
		}

		buffer = append(buffer, block)
		bufferTokens += block.Tokens
	}

	if len(buffer) > 0 {
		chunks = append(chunks, a.finalize(stack, overlap, buffer, work, title))
	}

	return chunks
}

// finalize composes a chunk from the heading stack, the pending overlap and
// the open buffer. TotalTokens is recomputed from the fully composed raw text
// so breadcrumb and overlap overhead is captured.
func (a *Assembler) finalize(stack []headingEntry, overlap, buffer []Block, work, title string) Chunk {
	headingPath := make([]string, len(stack))
	for i, entry := range stack {
		headingPath[i] = entry.text
	}

	var rawParts []string
	if len(headingPath) > 0 {
		rawParts = append(rawParts, "# "+strings.Join(headingPath, " > "))
	}

	var mdParts []string
	for _, block := range overlap {
		rawParts = append(rawParts, block.Text)
		mdParts = append(mdParts, block.Markdown)
	}
	for _, block := range buffer {
		rawParts = append(rawParts, block.Text)
		mdParts = append(mdParts, block.Markdown)
	}

	rawText := strings.Join(rawParts, "\n\n")

	return Chunk{
		ID:           uuid.New().String(),
		Work:         work,
		Title:        title,
		HeadingPath:  headingPath,
		TotalTokens:  a.counter.Count(rawText),
		RawText:      rawText,
		MarkdownText: strings.Join(mdParts, "\n\n"),
	}
}

// nextOverlap scans the just-finalized buffer backward, greedily taking whole
// blocks while their accumulated token sum stays within the overlap budget.
// Blocks are never split to fit; when even the last block alone overshoots,
// the next chunk starts with no overlap.
func (a *Assembler) nextOverlap(buffer []Block) []Block {
	var overlap []Block
	total := 0

	for i := len(buffer) - 1; i >= 0; i-- {
		block := buffer[i]
		if total+block.Tokens > a.cfg.OverlapTokens {
			break
		}
		overlap = append([]Block{block}, overlap...)
		total += block.Tokens
	}

	return overlap
}
