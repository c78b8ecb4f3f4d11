package anno

import (
	"errors"
	"testing"
)

const docText = "The CONTRACT is VOID"

func mustAdd(t *testing.T, m *Model, s Span) Span {
	t.Helper()
	added, err := m.Add(s)
	if err != nil {
		t.Fatalf("add %v: %v", s, err)
	}
	return added
}

func TestModelAdd_FillsTextFromDocument(t *testing.T) {
	m := NewModel(docText)
	s := mustAdd(t, m, Span{ID: "a", Start: 4, End: 12, Type: "LEGAL_TERM"})
	if s.Text != "CONTRACT" {
		t.Errorf("expected text %q, got %q", "CONTRACT", s.Text)
	}
}

func TestModelAdd_RejectsInvalidSpans(t *testing.T) {
	cases := []struct {
		name string
		span Span
	}{
		{"start equals end", Span{ID: "a", Start: 3, End: 3}},
		{"start after end", Span{ID: "a", Start: 5, End: 2}},
		{"negative start", Span{ID: "a", Start: -1, End: 4}},
		{"end past document", Span{ID: "a", Start: 0, End: 1000}},
		{"missing id", Span{Start: 0, End: 3}},
		{"text mismatch", Span{ID: "a", Start: 0, End: 3, Text: "WRONG"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel(docText)
			_, err := m.Add(tc.span)
			var invalid *InvalidSpanError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidSpanError, got %v", err)
			}
		})
	}
}

func TestModelAdd_RejectsDuplicateID(t *testing.T) {
	m := NewModel(docText)
	mustAdd(t, m, Span{ID: "a", Start: 0, End: 3})
	if _, err := m.Add(Span{ID: "a", Start: 4, End: 12}); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestModelRemove(t *testing.T) {
	m := NewModel(docText)
	mustAdd(t, m, Span{ID: "a", Start: 0, End: 3})

	if err := m.Remove("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty model, got %d spans", m.Len())
	}
	if err := m.Remove("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestModelOverlaps_StrictPredicate(t *testing.T) {
	m := NewModel("ABCDEFGH")
	mustAdd(t, m, Span{ID: "a", Start: 2, End: 5})

	cases := []struct {
		name       string
		start, end int
		want       int
	}{
		{"fully inside", 3, 4, 1},
		{"covering", 0, 8, 1},
		{"partial left", 0, 3, 1},
		{"partial right", 4, 8, 1},
		{"abutting before", 0, 2, 0},
		{"abutting after", 5, 8, 0},
		{"disjoint", 6, 8, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Overlaps(tc.start, tc.end)
			if len(got) != tc.want {
				t.Errorf("Overlaps(%d,%d): expected %d spans, got %d", tc.start, tc.end, tc.want, len(got))
			}
		})
	}
}

func TestSortedByPosition_CanonicalOrder(t *testing.T) {
	m := NewModel("ABCDEFGHIJKLMNOP")
	// Inserted deliberately out of order.
	mustAdd(t, m, Span{ID: "short-late", Start: 8, End: 10})
	mustAdd(t, m, Span{ID: "short-early", Start: 2, End: 4})
	mustAdd(t, m, Span{ID: "long-early", Start: 2, End: 9})

	got := m.SortedByPosition()
	want := []string{"long-early", "short-early", "short-late"}
	if len(got) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortedByPosition_TiesStableByInsertion(t *testing.T) {
	m := NewModel("ABCDEFGH")
	mustAdd(t, m, Span{ID: "first", Start: 1, End: 4})
	mustAdd(t, m, Span{ID: "second", Start: 1, End: 4})

	got := m.SortedByPosition()
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("expected insertion order for identical ranges, got [%s %s]", got[0].ID, got[1].ID)
	}
}
