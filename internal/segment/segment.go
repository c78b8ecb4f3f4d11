// Package segment partitions document text into a linear sequence of
// non-overlapping segments, each tagged with the annotation spans
// active over it. Segments are ephemeral: recomputed on every
// highlight pass, never persisted or mutated.
package segment

import (
	"fmt"
	"sort"

	"github.com/dgallion1/annolex/internal/anno"
)

// Segment is a maximal slice [Start, End) of the document text
// together with the spans active over it. Active is in the canonical
// span order; spans within a segment may overlap each other, segments
// themselves never do.
type Segment struct {
	Start  int         `json:"start"`
	End    int         `json:"end"`
	Text   string      `json:"text"`
	Active []anno.Span `json:"active,omitempty"`
}

// breakpoint is a sweep event at a span boundary.
type breakpoint struct {
	position int
	isStart  bool
	span     anno.Span
}

// Build partitions text into segments covering it exactly, with no
// gaps and no overlaps between segments. The result is deterministic:
// it depends only on the text and the span set, not on the order
// spans were added.
//
// Build never fails on a validated span set. A span outside the text
// bounds is a programming error upstream and panics.
func Build(text string, spans []anno.Span) []Segment {
	runes := []rune(text)

	if len(spans) == 0 {
		return []Segment{{Start: 0, End: len(runes), Text: text}}
	}

	ordered := make([]anno.Span, len(spans))
	copy(ordered, spans)
	anno.Sort(ordered)

	points := make([]breakpoint, 0, 2*len(ordered))
	for _, s := range ordered {
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
			panic(fmt.Sprintf("segment: span %s [%d,%d) outside text of %d runes", s.ID, s.Start, s.End, len(runes)))
		}
		points = append(points, breakpoint{position: s.Start, isStart: true, span: s})
		points = append(points, breakpoint{position: s.End, isStart: false, span: s})
	}
	sortBreakpoints(points)

	var segs []Segment
	active := make(map[string]anno.Span)
	cursor := 0

	emit := func(end int) {
		if end <= cursor {
			return
		}
		seg := Segment{
			Start: cursor,
			End:   end,
			Text:  string(runes[cursor:end]),
		}
		if len(active) > 0 {
			seg.Active = make([]anno.Span, 0, len(active))
			for _, s := range active {
				seg.Active = append(seg.Active, s)
			}
			anno.Sort(seg.Active)
		}
		segs = append(segs, seg)
		cursor = end
	}

	for _, bp := range points {
		// Close the segment running up to this boundary with the
		// active set as it stood before the boundary takes effect.
		emit(bp.position)
		if bp.isStart {
			active[bp.span.ID] = bp.span
		} else {
			delete(active, bp.span.ID)
		}
	}

	// Trailing plain text after the last span.
	emit(len(runes))

	return segs
}

// sortBreakpoints orders events by position ascending; at equal
// position, end events come before start events so that a span ending
// exactly where another starts never appears to overlap it. The sort
// is stable over events built from canonically ordered spans, which
// keeps the walk deterministic; within one position and kind the
// order does not affect set membership.
func sortBreakpoints(points []breakpoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.position != b.position {
			return a.position < b.position
		}
		if a.isStart != b.isStart {
			return !a.isStart // end events first
		}
		return false
	})
}
