package overlay

import (
	"strings"
	"testing"

	"github.com/dgallion1/annolex/internal/anno"
)

func modelFor(t *testing.T, text string, spans ...anno.Span) *anno.Model {
	t.Helper()
	m := anno.NewModel(text)
	for _, s := range spans {
		if _, err := m.Add(s); err != nil {
			t.Fatalf("add %v: %v", s, err)
		}
	}
	return m
}

func TestAudit_InSync(t *testing.T) {
	m := modelFor(t, "The CONTRACT is VOID",
		anno.Span{ID: "s1", Start: 4, End: 12, Type: "X"},
		anno.Span{ID: "s2", Start: 16, End: 20, Type: "Y"})

	rendered, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	report, err := Audit(rendered, m)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !report.InSync() {
		t.Errorf("fresh rendering should be in sync: %+v", report)
	}
}

func TestAudit_DetectsMissingSpan(t *testing.T) {
	text := "The CONTRACT is VOID"
	m := modelFor(t, text, anno.Span{ID: "s1", Start: 4, End: 12, Type: "X"})

	rendered, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := m.Add(anno.Span{ID: "s2", Start: 16, End: 20, Type: "Y"}); err != nil {
		t.Fatal(err)
	}

	report, err := Audit(rendered, m)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if report.InSync() {
		t.Fatal("stale rendering reported in sync")
	}
	if len(report.Missing) != 1 || report.Missing[0] != "s2" {
		t.Errorf("expected missing [s2], got %v", report.Missing)
	}
	if len(report.Orphans) != 0 {
		t.Errorf("expected no orphans, got %v", report.Orphans)
	}
}

func TestAudit_DetectsOrphanSpan(t *testing.T) {
	text := "The CONTRACT is VOID"
	m := modelFor(t, text, anno.Span{ID: "s1", Start: 4, End: 12, Type: "X"})

	rendered, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := m.Remove("s1"); err != nil {
		t.Fatal(err)
	}

	report, err := Audit(rendered, m)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != "s1" {
		t.Errorf("expected orphans [s1], got %v", report.Orphans)
	}
}

func TestAudit_SeesNestedSpansViaIDList(t *testing.T) {
	// A span fully covered by a longer one never becomes a region's
	// primary, but it is still rendered in the region's id list and
	// must not show up as missing.
	m := modelFor(t, "ABCDEFGH",
		anno.Span{ID: "outer", Start: 0, End: 8, Type: "X"},
		anno.Span{ID: "inner", Start: 2, End: 5, Type: "Y"})

	rendered, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	report, err := Audit(rendered, m)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !report.InSync() {
		t.Errorf("nested span falsely reported divergent: %+v", report)
	}
}

func TestReconcile_KeepsValidRendering(t *testing.T) {
	m := modelFor(t, "ABC", anno.Span{ID: "a", Start: 0, End: 3, Type: "X"})

	rendered, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	got, report, err := Reconcile(rendered, m)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !report.InSync() {
		t.Errorf("unexpected divergence: %+v", report)
	}
	if got != rendered {
		t.Error("in-sync rendering should be returned unchanged")
	}
}

func TestReconcile_RebuildsOnDivergence(t *testing.T) {
	text := "The CONTRACT is VOID"
	m := modelFor(t, text, anno.Span{ID: "s1", Start: 4, End: 12, Type: "X"})

	stale, err := Rebuild(m)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := m.Add(anno.Span{ID: "s2", Start: 16, End: 20, Type: "Y"}); err != nil {
		t.Fatal(err)
	}

	fresh, report, err := Reconcile(stale, m)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.InSync() {
		t.Fatal("divergence not reported")
	}
	if fresh == stale {
		t.Fatal("divergent rendering was not rebuilt")
	}
	if !strings.Contains(fresh, `data-span-id="s2"`) {
		t.Errorf("rebuilt overlay missing new span: %s", fresh)
	}
	after, err := Audit(fresh, m)
	if err != nil {
		t.Fatalf("audit rebuilt: %v", err)
	}
	if !after.InSync() {
		t.Errorf("rebuilt overlay still divergent: %+v", after)
	}
}
