package overlay

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/annolex/internal/anno"
	"github.com/dgallion1/annolex/internal/segment"
)

// AuditReport is the result of comparing a rendered overlay against
// the span model it is supposed to display.
type AuditReport struct {
	// Orphans are span ids present in the rendering with no backing
	// span in the model.
	Orphans []string `json:"orphans,omitempty"`
	// Missing are model spans absent from the rendering.
	Missing []string `json:"missing,omitempty"`
}

// InSync reports whether the rendering matches the model exactly.
func (r AuditReport) InSync() bool {
	return len(r.Orphans) == 0 && len(r.Missing) == 0
}

// Audit parses a rendered overlay and diffs its visible span ids
// against the model's id set. Create, delete, batch auto-recognition
// saves and text-edit invalidation can all mutate the model between
// renders; this is the single authority for "is the overlay still
// valid".
func Audit(renderedHTML string, model *anno.Model) (AuditReport, error) {
	frag, err := html.Parse(strings.NewReader(renderedHTML))
	if err != nil {
		return AuditReport{}, fmt.Errorf("parse rendered overlay: %w", err)
	}

	rendered := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "data-span-ids" {
					for _, id := range strings.Fields(a.Val) {
						rendered[id] = true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(frag)

	var report AuditReport
	backing := model.IDs()
	for id := range rendered {
		if !backing[id] {
			report.Orphans = append(report.Orphans, id)
		}
	}
	for id := range backing {
		if !rendered[id] {
			report.Missing = append(report.Missing, id)
		}
	}
	sort.Strings(report.Orphans)
	sort.Strings(report.Missing)
	return report, nil
}

// Rebuild segments the current model, renders it with touching
// regions marked, and returns the fresh overlay HTML.
// Divergence is never patched incrementally: overlap boundaries shift
// non-locally when any single span changes, so a full rebuild is the
// only always-correct policy.
func Rebuild(model *anno.Model) (string, error) {
	segs := segment.Build(model.Text(), model.SortedByPosition())
	root := Render(segs)
	MarkTouching(root)
	var buf strings.Builder
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reconcile audits and, on any divergence, rebuilds. It returns the
// overlay that is now valid for the model (the input rendering when
// already in sync) and the audit report that justified the decision.
func Reconcile(renderedHTML string, model *anno.Model) (string, AuditReport, error) {
	report, err := Audit(renderedHTML, model)
	if err != nil {
		return "", report, err
	}
	if report.InSync() {
		return renderedHTML, report, nil
	}
	fresh, err := Rebuild(model)
	return fresh, report, err
}
