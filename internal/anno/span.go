package anno

import (
	"fmt"
	"sort"
)

// Span is a tagged character range [Start, End) over a document's text.
// Offsets are rune offsets into the flattened document text. A Span is
// immutable once added to a Model; changes are delete + recreate.
type Span struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`

	// seq is the insertion order within a Model, the final tie-break
	// of the canonical ordering.
	seq int
}

// Len returns the span length in runes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Sort orders spans by the canonical rule: Start ascending, then
// length descending (longer first), then insertion order. Every
// component that needs span ordering goes through this one function.
func Sort(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.seq < b.seq
	})
}

// Model holds the span set for one document and answers overlap and
// ordering queries. It is not safe for concurrent use; callers
// serialize access (the engine holds one Model per session behind a
// mutex).
type Model struct {
	text    []rune
	spans   map[string]Span
	nextSeq int
}

// NewModel creates an empty Model over the given document text.
func NewModel(text string) *Model {
	return &Model{
		text:  []rune(text),
		spans: make(map[string]Span),
	}
}

// Text returns the document text the model was built over.
func (m *Model) Text() string {
	return string(m.text)
}

// TextLen returns the document length in runes.
func (m *Model) TextLen() int {
	return len(m.text)
}

// Add validates and inserts a span. The span's Text, when empty, is
// filled from the document; when set, it must match the document
// substring exactly.
func (m *Model) Add(s Span) (Span, error) {
	if s.Start < 0 || s.End > len(m.text) {
		return Span{}, &InvalidSpanError{Start: s.Start, End: s.End, Reason: fmt.Sprintf("out of document bounds [0,%d)", len(m.text))}
	}
	if s.Start >= s.End {
		return Span{}, &InvalidSpanError{Start: s.Start, End: s.End, Reason: "start must be less than end"}
	}
	if s.ID == "" {
		return Span{}, &InvalidSpanError{Start: s.Start, End: s.End, Reason: "missing id"}
	}
	if _, exists := m.spans[s.ID]; exists {
		return Span{}, &InvalidSpanError{Start: s.Start, End: s.End, Reason: "duplicate id " + s.ID}
	}
	want := string(m.text[s.Start:s.End])
	if s.Text == "" {
		s.Text = want
	} else if s.Text != want {
		return Span{}, &InvalidSpanError{Start: s.Start, End: s.End, Reason: fmt.Sprintf("text mismatch: span %q, document %q", s.Text, want)}
	}
	s.seq = m.nextSeq
	m.nextSeq++
	m.spans[s.ID] = s
	return s, nil
}

// Remove deletes a span by id. Returns ErrNotFound if absent.
func (m *Model) Remove(id string) error {
	if _, ok := m.spans[id]; !ok {
		return ErrNotFound
	}
	delete(m.spans, id)
	return nil
}

// Get returns the span with the given id.
func (m *Model) Get(id string) (Span, bool) {
	s, ok := m.spans[id]
	return s, ok
}

// Len returns the number of spans.
func (m *Model) Len() int {
	return len(m.spans)
}

// Overlaps returns every span that strictly overlaps [start, end).
// A span ending exactly where the range starts does not overlap it.
func (m *Model) Overlaps(start, end int) []Span {
	var out []Span
	for _, s := range m.spans {
		if s.Start < end && s.End > start {
			out = append(out, s)
		}
	}
	Sort(out)
	return out
}

// SortedByPosition returns all spans in the canonical order.
func (m *Model) SortedByPosition() []Span {
	out := make([]Span, 0, len(m.spans))
	for _, s := range m.spans {
		out = append(out, s)
	}
	Sort(out)
	return out
}

// IDs returns the set of span ids currently in the model.
func (m *Model) IDs() map[string]bool {
	out := make(map[string]bool, len(m.spans))
	for id := range m.spans {
		out[id] = true
	}
	return out
}
