package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	content, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if content.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", content.Title)
	}
	want := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	if content.Text != want {
		t.Errorf("expected text %q, got %q", want, content.Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	content, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "" {
		t.Errorf("expected empty text, got %q", content.Text)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Consecutive blank lines collapse to one paragraph separator so
	// offsets stay canonical across re-uploads.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	content, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "Para one.\n\nPara two." {
		t.Errorf("got %q", content.Text)
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	content, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "Para one.\n\nPara two." {
		t.Errorf("got %q", content.Text)
	}
}

func TestTextParser_NoTrailingNewline(t *testing.T) {
	p := &TextParser{}
	content, err := p.Parse(strings.NewReader("Hello world\n\n"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "Hello world" {
		t.Errorf("expected trailing separator dropped, got %q", content.Text)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"doc.txt", false},
		{"doc.md", false},
		{"doc.csv", false},
		{"doc.html", false},
		{"doc.pdf", false},
		{"doc.docx", false},
		{"doc.exe", true},
		{"doc", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("brief.PDF") {
		t.Error("extension check should be case-insensitive")
	}
	if IsSupportedExtension("notes.doc") {
		t.Error(".doc is not supported")
	}
}
