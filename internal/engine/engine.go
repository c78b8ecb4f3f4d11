// Package engine ties the span model, segment builder, overlay
// renderer and sync guard together into per-document annotation
// sessions backed by the store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/annolex/internal/anno"
	"github.com/dgallion1/annolex/internal/document"
	"github.com/dgallion1/annolex/internal/overlay"
	"github.com/dgallion1/annolex/internal/store"
)

// Notifier receives overlay change events. The API layer plugs in
// its websocket hub here.
type Notifier interface {
	OverlayUpdated(docID string, version int64)
}

// Engine manages annotation sessions, one per open document, with
// TTL eviction of idle ones. Sessions are rebuilt from the store on
// demand, so eviction never loses data.
type Engine struct {
	store    *store.Store
	log      *slog.Logger
	notifier Notifier

	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// New creates an Engine. notifier may be nil.
func New(st *store.Store, log *slog.Logger, ttl time.Duration, notifier Notifier) *Engine {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Engine{
		store:    st,
		log:      log,
		notifier: notifier,
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Session returns the annotation session for a document, loading the
// document and its annotations from the store on first access.
func (e *Engine) Session(ctx context.Context, docID string) (*Session, error) {
	e.mu.Lock()
	if s, ok := e.sessions[docID]; ok {
		e.mu.Unlock()
		s.touch()
		return s, nil
	}
	e.mu.Unlock()

	s, err := e.loadSession(ctx, docID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another request may have loaded it meanwhile; keep the first.
	if existing, ok := e.sessions[docID]; ok {
		return existing, nil
	}
	e.sessions[docID] = s
	return s, nil
}

func (e *Engine) loadSession(ctx context.Context, docID string) (*Session, error) {
	doc, err := e.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	annotations, err := e.store.ListAnnotations(ctx, docID)
	if err != nil {
		return nil, err
	}

	model := anno.NewModel(doc.Text)
	for _, a := range annotations {
		if _, err := model.Add(spanFromAnnotation(a)); err != nil {
			// A stored annotation that no longer validates means the
			// row predates a text change that should have dropped it.
			// Skip it rather than poison the whole session.
			e.log.Warn("skipping invalid stored annotation",
				"doc_id", docID, "annotation_id", a.ID, "error", err)
		}
	}

	s := &Session{
		engine: e,
		doc:    doc,
		model:  model,
	}
	if err := s.renderLocked(); err != nil {
		return nil, err
	}
	s.touch()
	return s, nil
}

// Invalidate drops a session so the next access rebuilds it from the
// store. Called after document deletion or text replacement.
func (e *Engine) Invalidate(docID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, docID)
}

// Cleanup evicts sessions idle past the TTL.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	for id, s := range e.sessions {
		if now.Sub(s.lastUsed()) > e.ttl {
			delete(e.sessions, id)
		}
	}
}

// StartCleanup runs Cleanup periodically until ctx is done.
func (e *Engine) StartCleanup(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Cleanup()
			}
		}
	}()
}

// ReplaceDocumentText swaps a document's text, drops all of its
// annotations, and invalidates the session. Offsets are never
// re-mapped onto new text.
func (e *Engine) ReplaceDocumentText(ctx context.Context, docID, text, contentHash string) (int, error) {
	dropped, err := e.store.ReplaceDocumentText(ctx, docID, text, contentHash)
	if err != nil {
		return 0, err
	}
	e.Invalidate(docID)
	if dropped > 0 {
		e.log.Info("document text replaced, annotations dropped",
			"doc_id", docID, "dropped", dropped,
			"reason", (&anno.StaleDocumentError{DocID: docID}).Error())
	}
	if e.notifier != nil {
		e.notifier.OverlayUpdated(docID, 0)
	}
	return dropped, nil
}

// resolveColor maps an annotation type to its configured colour. An
// unknown or missing type falls back to the default colour; the raw
// type string is kept for display.
func (e *Engine) resolveColor(ctx context.Context, typ string) string {
	if typ == "" {
		return overlay.DefaultColor
	}
	et, err := e.store.FindEntityTypeByName(ctx, typ)
	if err != nil || et.Color == "" {
		return overlay.DefaultColor
	}
	return et.Color
}

func spanFromAnnotation(a document.Annotation) anno.Span {
	return anno.Span{
		ID:    a.ID,
		Start: a.Start,
		End:   a.End,
		Type:  a.Type,
		Text:  a.Text,
		Color: a.Color,
	}
}

// OverlapConflictError reports that a candidate span overlaps
// existing annotations. It is a decision point, not a failure: the
// caller confirms (force) or aborts.
type OverlapConflictError struct {
	Conflicts []anno.Span
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("candidate span overlaps %d existing annotation(s)", len(e.Conflicts))
}
