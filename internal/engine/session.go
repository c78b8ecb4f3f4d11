package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dgallion1/annolex/internal/anno"
	"github.com/dgallion1/annolex/internal/document"
	"github.com/dgallion1/annolex/internal/overlay"
	"github.com/dgallion1/annolex/internal/segment"
)

// Session is the live annotation state for one document: its span
// model plus the current rendered overlay. Every mutation and every
// render happens under one mutex, so render passes never overlap and
// no caller observes a half-applied batch.
type Session struct {
	engine *Engine

	mu          sync.Mutex
	doc         document.Document
	model       *anno.Model
	overlayHTML string
	segments    []segment.Segment
	version     int64
	used        time.Time
}

// Doc returns the session's document (without live annotations).
func (s *Session) Doc() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Overlay returns the current overlay HTML, its segments and the
// render version. The sync guard runs first: if the rendering has
// drifted from the model, the overlay is rebuilt before returning.
func (s *Session) Overlay() (string, []segment.Segment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, report, err := overlay.Reconcile(s.overlayHTML, s.model)
	if err != nil {
		return "", nil, 0, err
	}
	if !report.InSync() {
		s.engine.log.Warn("overlay drift detected, rebuilt",
			"doc_id", s.doc.ID, "orphans", report.Orphans, "missing", report.Missing)
		s.overlayHTML = fresh
		s.segments = segment.Build(s.model.Text(), s.model.SortedByPosition())
		s.version++
	}
	return s.overlayHTML, s.segments, s.version, nil
}

// Annotations returns the span set in canonical order.
func (s *Session) Annotations() []anno.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SortedByPosition()
}

// Create validates a candidate span, checks it for overlap against
// the existing set, persists it and re-renders. Unless force is set,
// an overlapping candidate is rejected with OverlapConflictError so
// the caller can ask the user.
func (s *Session) Create(ctx context.Context, start, end int, typ string, force bool) (anno.Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conflicts := s.model.Overlaps(start, end); len(conflicts) > 0 && !force {
		return anno.Span{}, &OverlapConflictError{Conflicts: conflicts}
	}

	span := anno.Span{
		ID:    uuid.NewString(),
		Start: start,
		End:   end,
		Type:  typ,
		Color: s.engine.resolveColor(ctx, typ),
	}
	added, err := s.model.Add(span)
	if err != nil {
		return anno.Span{}, err
	}

	if err := s.engine.store.CreateAnnotation(ctx, s.annotationFromSpan(added)); err != nil {
		// Keep model and store consistent.
		s.model.Remove(added.ID)
		return anno.Span{}, err
	}

	if err := s.renderLocked(); err != nil {
		return anno.Span{}, err
	}
	s.notifyLocked()
	return added, nil
}

// CreateBatch applies a set of candidate spans as one unit: all are
// validated and added to the model first, persisted atomically, and
// the overlay is re-rendered exactly once at the end. Candidates that
// fail validation or overlap existing spans are skipped and reported;
// a render never observes a half-applied batch.
func (s *Session) CreateBatch(ctx context.Context, candidates []Candidate) ([]anno.Span, []SkippedCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted []anno.Span
	var skipped []SkippedCandidate

	for _, c := range candidates {
		if conflicts := s.model.Overlaps(c.Start, c.End); len(conflicts) > 0 {
			skipped = append(skipped, SkippedCandidate{Candidate: c, Reason: "overlaps existing annotation"})
			continue
		}
		span := anno.Span{
			ID:    uuid.NewString(),
			Start: c.Start,
			End:   c.End,
			Type:  c.Type,
			Color: s.engine.resolveColor(ctx, c.Type),
		}
		added, err := s.model.Add(span)
		if err != nil {
			skipped = append(skipped, SkippedCandidate{Candidate: c, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, added)
	}

	if len(accepted) > 0 {
		rows := make([]document.Annotation, 0, len(accepted))
		for _, a := range accepted {
			rows = append(rows, s.annotationFromSpan(a))
		}
		if err := s.engine.store.CreateAnnotations(ctx, rows); err != nil {
			for _, a := range accepted {
				s.model.Remove(a.ID)
			}
			return nil, nil, err
		}
	}

	if err := s.renderLocked(); err != nil {
		return nil, nil, err
	}
	s.notifyLocked()
	return accepted, skipped, nil
}

// Delete removes a span by id and re-renders.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.model.Remove(id); err != nil {
		return err
	}
	if err := s.engine.store.DeleteAnnotation(ctx, s.doc.ID, id); err != nil {
		return err
	}
	if err := s.renderLocked(); err != nil {
		return err
	}
	s.notifyLocked()
	return nil
}

// ResolveSelection maps a selection over the current overlay markup
// back to absolute offsets into the document text. Paths address
// nodes relative to the overlay container by child index.
func (s *Session) ResolveSelection(startPath []int, startOffset int, endPath []int, endOffset int) (int, int, error) {
	s.mu.Lock()
	rendered := s.overlayHTML
	s.mu.Unlock()

	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return -1, -1, err
	}
	container := findOverlayContainer(root)
	if container == nil {
		return -1, -1, &overlay.OffsetResolutionError{Reason: "overlay container not found"}
	}

	startNode, err := overlay.NodeAtPath(container, startPath)
	if err != nil {
		return -1, -1, err
	}
	endNode, err := overlay.NodeAtPath(container, endPath)
	if err != nil {
		return -1, -1, err
	}
	return overlay.ResolveSelection(container, startNode, startOffset, endNode, endOffset)
}

// OverlappingSpans returns existing spans that strictly overlap
// [start, end), in canonical order.
func (s *Session) OverlappingSpans(start, end int) []anno.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.model.Overlaps(start, end)
	if out == nil {
		out = []anno.Span{}
	}
	return out
}

// TextSlice returns the document substring at [start, end) in runes,
// clamped to the document bounds.
func (s *Session) TextSlice(start, end int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	runes := []rune(s.model.Text())
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// Candidate is an unsaved span proposal, from a user selection or
// from auto-recognition.
type Candidate struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
}

// SkippedCandidate is a batch member that was not applied.
type SkippedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}

// renderLocked runs the full highlight pass: segment the model,
// render, mark touching regions. Callers hold s.mu, which is what
// serializes renders.
func (s *Session) renderLocked() error {
	rendered, err := overlay.Rebuild(s.model)
	if err != nil {
		return err
	}
	s.overlayHTML = rendered
	s.segments = segment.Build(s.model.Text(), s.model.SortedByPosition())
	s.version++
	s.used = time.Now()
	return nil
}

func (s *Session) notifyLocked() {
	if s.engine.notifier != nil {
		s.engine.notifier.OverlayUpdated(s.doc.ID, s.version)
	}
}

func (s *Session) annotationFromSpan(a anno.Span) document.Annotation {
	return document.Annotation{
		ID:        a.ID,
		DocID:     s.doc.ID,
		Start:     a.Start,
		End:       a.End,
		Type:      a.Type,
		Text:      a.Text,
		Color:     a.Color,
		CreatedAt: time.Now(),
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used = time.Now()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

func findOverlayContainer(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(a.Val, "anno-overlay") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findOverlayContainer(c); found != nil {
			return found
		}
	}
	return nil
}
