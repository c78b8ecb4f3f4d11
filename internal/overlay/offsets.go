// Package overlay turns annotation spans into rendered highlight
// markup and translates selections made over that markup back into
// absolute text offsets.
//
// Both directions share one definition of the document text: the
// concatenation of all descendant text nodes in document order. If
// the resolver and the renderer ever disagree on that definition,
// every offset in the system silently desynchronizes, so both live
// here.
package overlay

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// OffsetResolutionError indicates a selection endpoint that could not
// be mapped into the container's text.
type OffsetResolutionError struct {
	Reason string
}

func (e *OffsetResolutionError) Error() string {
	return "offset resolution: " + e.Reason
}

// FlattenText returns the container's full text content: all
// descendant text nodes concatenated in document order, markup
// ignored.
func FlattenText(container *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return buf.String()
}

// AbsoluteOffset maps (target, offset) to an absolute rune offset
// into the container's flattened text. When target is the container
// itself the offset is already absolute and is returned unchanged
// (after a bounds check). Otherwise target must be a text node
// reachable from the container, and offset a rune index into its
// character data.
//
// The read is pure: no node is modified.
func AbsoluteOffset(container, target *html.Node, offset int) (int, error) {
	if offset < 0 {
		return -1, &OffsetResolutionError{Reason: fmt.Sprintf("negative offset %d", offset)}
	}
	if target == container {
		total := len([]rune(FlattenText(container)))
		if offset > total {
			return -1, &OffsetResolutionError{Reason: fmt.Sprintf("offset %d past document end %d", offset, total)}
		}
		return offset, nil
	}

	consumed := 0
	found := false
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			found = true
			return true
		}
		if n.Type == html.TextNode {
			consumed += len([]rune(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(container)

	if !found {
		return -1, &OffsetResolutionError{Reason: "target node not reachable from container"}
	}
	if target.Type != html.TextNode {
		return -1, &OffsetResolutionError{Reason: "target is not a text node"}
	}
	if offset > len([]rune(target.Data)) {
		return -1, &OffsetResolutionError{Reason: fmt.Sprintf("offset %d past end of text node (%d runes)", offset, len([]rune(target.Data)))}
	}
	return consumed + offset, nil
}

// ResolveSelection maps both endpoints of a selection to an absolute
// [start, end) pair over the container's flattened text. Backwards
// selections (anchor after focus) are normalized.
func ResolveSelection(container, startNode *html.Node, startOffset int, endNode *html.Node, endOffset int) (int, int, error) {
	start, err := AbsoluteOffset(container, startNode, startOffset)
	if err != nil {
		return -1, -1, fmt.Errorf("selection start: %w", err)
	}
	end, err := AbsoluteOffset(container, endNode, endOffset)
	if err != nil {
		return -1, -1, fmt.Errorf("selection end: %w", err)
	}
	if start > end {
		start, end = end, start
	}
	return start, end, nil
}

// NodeAtPath walks child indexes from root. A path of [1, 0] means
// root's second child's first child. An empty path is the root
// itself. This is how API clients address a node inside the rendered
// overlay they received.
func NodeAtPath(root *html.Node, path []int) (*html.Node, error) {
	n := root
	for depth, idx := range path {
		if idx < 0 {
			return nil, &OffsetResolutionError{Reason: fmt.Sprintf("negative child index at depth %d", depth)}
		}
		c := n.FirstChild
		for i := 0; i < idx && c != nil; i++ {
			c = c.NextSibling
		}
		if c == nil {
			return nil, &OffsetResolutionError{Reason: fmt.Sprintf("child index %d out of range at depth %d", idx, depth)}
		}
		n = c
	}
	return n, nil
}
