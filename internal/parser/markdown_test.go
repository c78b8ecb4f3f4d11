package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsAndBody(t *testing.T) {
	input := `# Service Agreement

Intro text.

## Term

The term of this agreement is one year.

## Termination

Either party may terminate with notice.
`
	p := &MarkdownParser{}
	content, err := p.Parse(strings.NewReader(input), "agreement.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First h1 doubles as the document title.
	if content.Title != "Service Agreement" {
		t.Errorf("expected title %q, got %q", "Service Agreement", content.Title)
	}

	for _, want := range []string{
		"Service Agreement",
		"Intro text.",
		"Term",
		"The term of this agreement is one year.",
		"Termination",
		"Either party may terminate with notice.",
	} {
		if !strings.Contains(content.Text, want) {
			t.Errorf("flattened text missing %q:\n%s", want, content.Text)
		}
	}
}

func TestMarkdownParser_FlattenedTextExact(t *testing.T) {
	// The flattened text is what every annotation offset indexes
	// into, so paragraph content must appear exactly once.
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"plain paragraph",
			"Plain paragraph sentence.\n",
			"Plain paragraph sentence.",
		},
		{
			"heading and body",
			"# Title\n\nBody sentence one.\n",
			"Title\n\nBody sentence one.",
		},
		{
			"inline emphasis",
			"Some *emphasized* text.\n",
			"Some emphasized text.",
		},
		{
			"two paragraphs",
			"First paragraph.\n\nSecond paragraph.\n",
			"First paragraph.\n\nSecond paragraph.",
		},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := p.Parse(strings.NewReader(tt.input), "doc.md")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if content.Text != tt.want {
				t.Errorf("flattened text = %q, want %q", content.Text, tt.want)
			}
		})
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	content, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Title falls back to the filename stem.
	if content.Title != "plain" {
		t.Errorf("expected title %q, got %q", "plain", content.Title)
	}
	if !strings.Contains(content.Text, "Just some plain text.") {
		t.Errorf("expected first paragraph, got %q", content.Text)
	}
	if !strings.Contains(content.Text, "Another paragraph here.") {
		t.Errorf("expected second paragraph, got %q", content.Text)
	}
}

func TestMarkdownParser_CodeBlocksKept(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n```\nGET /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	content, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(content.Text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", content.Text)
	}
	if !strings.Contains(content.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", content.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	content, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "" {
		t.Errorf("expected empty text, got %q", content.Text)
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		content, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if content.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, content.Title)
		}
	}
}
