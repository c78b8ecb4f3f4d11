package overlay

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/annolex/internal/anno"
	"github.com/dgallion1/annolex/internal/segment"
)

// DefaultColor is used when a span's entity type resolves to no
// configured colour.
const DefaultColor = "#fcd34d"

// Render builds the overlay markup for a segment sequence: one child
// per segment under a container div. Plain segments become bare text
// nodes; annotated segments become a span element styled by the
// segment's primary span.
//
// The primary span of a segment is the first element of its active
// list under the canonical ordering (earliest start, then longest),
// never "first span encountered during the sweep". A segment with
// more than one active span is rendered once, flagged as an overlap
// region via data-overlap; highlight layers are not stacked.
//
// Concatenating the text content of the result reproduces the
// original document text exactly. Escaping is handled by html.Render
// on text nodes and attribute values; document text and span
// metadata are never interpolated into raw markup.
func Render(segs []segment.Segment) *html.Node {
	container := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: "anno-overlay"}},
	}

	for _, seg := range segs {
		if len(seg.Active) == 0 {
			container.AppendChild(&html.Node{Type: html.TextNode, Data: seg.Text})
			continue
		}

		active := make([]anno.Span, len(seg.Active))
		copy(active, seg.Active)
		anno.Sort(active)
		primary := active[0]

		color := primary.Color
		if color == "" {
			color = DefaultColor
		}

		ids := make([]string, 0, len(active))
		for _, s := range active {
			ids = append(ids, s.ID)
		}

		class := "annotation"
		attrs := []html.Attribute{
			{Key: "data-span-id", Val: primary.ID},
			{Key: "data-span-ids", Val: strings.Join(ids, " ")},
			{Key: "data-type", Val: primary.Type},
			{Key: "style", Val: "background-color: " + color},
		}
		if len(active) > 1 {
			class += " overlap"
			attrs = append(attrs, html.Attribute{Key: "data-overlap", Val: "true"})
		}
		attrs = append([]html.Attribute{{Key: "class", Val: class}}, attrs...)

		region := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Span,
			Data:     "span",
			Attr:     attrs,
		}
		region.AppendChild(&html.Node{Type: html.TextNode, Data: seg.Text})
		container.AppendChild(region)
	}

	return container
}

// RenderHTML renders segments and serializes the overlay to HTML.
func RenderHTML(segs []segment.Segment) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, Render(segs)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PrimarySpan returns the styling span for a segment's active set, or
// false when the segment is plain text.
func PrimarySpan(seg segment.Segment) (anno.Span, bool) {
	if len(seg.Active) == 0 {
		return anno.Span{}, false
	}
	active := make([]anno.Span, len(seg.Active))
	copy(active, seg.Active)
	anno.Sort(active)
	return active[0], true
}
