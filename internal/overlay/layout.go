package overlay

import (
	"strings"

	"golang.org/x/net/html"
)

// MarkTouching is the presentational second pass: it tags highlighted
// regions that sit directly against another highlighted region (no
// plain text between them), the server-side stand-in for two rendered
// bounding boxes meeting on the same line. It is best-effort layout
// feedback only. It rewrites class attributes on the rendered tree
// and never touches the span model or the segment data.
func MarkTouching(container *html.Node) int {
	marked := 0
	var prev *html.Node

	for c := container.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && c.Data != "":
			prev = nil
		case c.Type == html.ElementNode && isRegion(c):
			if prev != nil {
				if addClass(prev, "touching") {
					marked++
				}
				if addClass(c, "touching") {
					marked++
				}
			}
			prev = c
		}
	}
	return marked
}

func isRegion(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "data-span-id" {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) bool {
	for i, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, existing := range strings.Fields(a.Val) {
			if existing == class {
				return false
			}
		}
		n.Attr[i].Val = a.Val + " " + class
		return true
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	return true
}
