package overlay

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// parseContainer parses markup and returns the first element under
// <body>, which is the overlay container in every test fixture here.
func parseContainer(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var body func(*html.Node) *html.Node
	body = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := body(c); found != nil {
				return found
			}
		}
		return nil
	}
	b := body(doc)
	if b == nil || b.FirstChild == nil {
		t.Fatalf("no container in %q", markup)
	}
	return b.FirstChild
}

func TestFlattenText_IgnoresMarkup(t *testing.T) {
	container := parseContainer(t,
		`<div>The <span class="annotation">CONTRACT</span> is <span class="annotation">VOID</span></div>`)

	if got := FlattenText(container); got != "The CONTRACT is VOID" {
		t.Errorf("expected flattened document text, got %q", got)
	}
}

func TestAbsoluteOffset_InsideHighlightedRegion(t *testing.T) {
	// Selection lands in the text node inside the second highlight.
	// Its local offset must resolve against the whole document, not
	// the fragment.
	container := parseContainer(t,
		`<div>The <span class="annotation">CONTRACT</span> is VOID</div>`)

	region := container.FirstChild.NextSibling // the span element
	textNode := region.FirstChild
	if textNode == nil || textNode.Type != html.TextNode {
		t.Fatalf("fixture wrong: expected text node inside region")
	}

	got, err := AbsoluteOffset(container, textNode, 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 7 {
		t.Errorf("expected absolute offset 7, got %d", got)
	}
}

func TestAbsoluteOffset_ContainerAsTarget(t *testing.T) {
	container := parseContainer(t, `<div>Hello world</div>`)

	got, err := AbsoluteOffset(container, container, 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 5 {
		t.Errorf("expected 5, got %d", got)
	}

	if _, err := AbsoluteOffset(container, container, 12); err == nil {
		t.Error("expected error for offset past document end")
	}
}

func TestAbsoluteOffset_UnreachableTarget(t *testing.T) {
	container := parseContainer(t, `<div>Hello</div>`)
	stray := &html.Node{Type: html.TextNode, Data: "elsewhere"}

	_, err := AbsoluteOffset(container, stray, 0)
	if err == nil {
		t.Fatal("expected error for node outside container")
	}
	var resErr *OffsetResolutionError
	if !errors.As(err, &resErr) {
		t.Errorf("expected OffsetResolutionError, got %T", err)
	}
}

func TestAbsoluteOffset_OffsetPastNodeEnd(t *testing.T) {
	container := parseContainer(t, `<div>abc</div>`)
	textNode := container.FirstChild

	if _, err := AbsoluteOffset(container, textNode, 3); err != nil {
		t.Errorf("offset == rune length is a valid collapsed endpoint: %v", err)
	}
	if _, err := AbsoluteOffset(container, textNode, 4); err == nil {
		t.Error("expected error for offset past node end")
	}
}

func TestResolveSelection_NormalizesBackwards(t *testing.T) {
	container := parseContainer(t,
		`<div>The <span class="annotation">CONTRACT</span> is VOID</div>`)

	lead := container.FirstChild                          // "The "
	inner := container.FirstChild.NextSibling.FirstChild // "CONTRACT"

	start, end, err := ResolveSelection(container, inner, 4, lead, 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if start != 2 || end != 8 {
		t.Errorf("expected [2,8), got [%d,%d)", start, end)
	}
}

func TestResolveSelection_MatchesRenderedOverlay(t *testing.T) {
	// A selection made over highlighted markup resolves to the same
	// offsets it would have over the plain document text.
	container := parseContainer(t,
		`<div>Plaintiff <span class="annotation">Acme Corp</span> denies all claims</div>`)

	region := container.FirstChild.NextSibling
	inner := region.FirstChild

	start, end, err := ResolveSelection(container, inner, 0, inner, 9)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if start != 10 || end != 19 {
		t.Errorf("expected [10,19), got [%d,%d)", start, end)
	}
	if got := string([]rune(FlattenText(container))[start:end]); got != "Acme Corp" {
		t.Errorf("offsets do not address the selected text: %q", got)
	}
}

func TestNodeAtPath(t *testing.T) {
	container := parseContainer(t,
		`<div>alpha<span>beta</span>gamma</div>`)

	n, err := NodeAtPath(container, []int{1, 0})
	if err != nil {
		t.Fatalf("resolve path: %v", err)
	}
	if n.Type != html.TextNode || n.Data != "beta" {
		t.Errorf("expected text node %q, got %v %q", "beta", n.Type, n.Data)
	}

	if got, err := NodeAtPath(container, nil); err != nil || got != container {
		t.Errorf("empty path should yield the root, got %v, %v", got, err)
	}

	if _, err := NodeAtPath(container, []int{5}); err == nil {
		t.Error("expected error for out-of-range child index")
	}
	if _, err := NodeAtPath(container, []int{-1}); err == nil {
		t.Error("expected error for negative child index")
	}
}
