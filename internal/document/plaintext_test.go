package document

import "testing"

func TestParseTextSplitsOnBlankLines(t *testing.T) {
	content := []byte("First paragraph\nstill first.\n\n\nSecond paragraph.\n\nThird.")

	nodes := ParseText(content)
	if len(nodes) != 3 {
		t.Fatalf("ParseText() returned %d nodes, want 3", len(nodes))
	}

	if nodes[0].Text != "First paragraph\nstill first." {
		t.Errorf("nodes[0].Text = %q", nodes[0].Text)
	}
	if nodes[1].Text != "Second paragraph." {
		t.Errorf("nodes[1].Text = %q", nodes[1].Text)
	}
	for i, node := range nodes {
		if node.Type != NodeParagraph {
			t.Errorf("nodes[%d].Type = %q, want paragraph", i, node.Type)
		}
	}
}

func TestParseTextPreservesTrailingWhitespace(t *testing.T) {
	content := []byte("line with trailing spaces   \nsecond line\t\n\nnext")

	nodes := ParseText(content)
	if len(nodes) != 2 {
		t.Fatalf("ParseText() returned %d nodes, want 2", len(nodes))
	}
	if nodes[0].Text != "line with trailing spaces   \nsecond line\t" {
		t.Errorf("trailing whitespace not preserved: %q", nodes[0].Text)
	}
}

func TestParseTextEmpty(t *testing.T) {
	if nodes := ParseText([]byte("")); len(nodes) != 0 {
		t.Errorf("ParseText(empty) = %d nodes, want 0", len(nodes))
	}
	if nodes := ParseText([]byte("\n\n  \n")); len(nodes) != 0 {
		t.Errorf("ParseText(blank) = %d nodes, want 0", len(nodes))
	}
}
