package recognize

import (
	"testing"
)

var testTypes = map[string]bool{
	"PARTY":      true,
	"LEGAL_TERM": true,
	"DATE":       true,
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   bool
	}{
		{"valid", Entity{Text: "Acme Corp", Type: "PARTY"}, true},
		{"unknown type", Entity{Text: "Acme Corp", Type: "PERSON"}, false},
		{"too short", Entity{Text: "A", Type: "PARTY"}, false},
		{"one multibyte rune", Entity{Text: "ä", Type: "PARTY"}, false},
		{"two multibyte runes", Entity{Text: "äö", Type: "PARTY"}, true},
		{"whitespace only", Entity{Text: "   ", Type: "PARTY"}, false},
		{"empty", Entity{Text: "", Type: "PARTY"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEntity(tt.entity, testTypes); got != tt.want {
				t.Errorf("ValidateEntity(%+v) = %v, want %v", tt.entity, got, tt.want)
			}
		})
	}
}

func TestAnchor_SingleOccurrence(t *testing.T) {
	text := "Plaintiff Acme Corp denies all claims."
	got := Anchor(text, 0, []Entity{{Text: "Acme Corp", Type: "PARTY"}}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.Start != 10 || c.End != 19 {
		t.Errorf("expected [10,19), got [%d,%d)", c.Start, c.End)
	}
	if c.Type != "PARTY" || c.Text != "Acme Corp" {
		t.Errorf("candidate = %+v", c)
	}
}

func TestAnchor_AllOccurrencesAnchored(t *testing.T) {
	text := "Acme Corp and Beta LLC. Acme Corp signs first."
	got := Anchor(text, 0, []Entity{{Text: "Acme Corp", Type: "PARTY"}}, testTypes)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Start != 0 || got[1].Start != 24 {
		t.Errorf("expected starts 0 and 24, got %d and %d", got[0].Start, got[1].Start)
	}
}

func TestAnchor_ShiftsByWindowStart(t *testing.T) {
	got := Anchor("Acme Corp signs.", 500, []Entity{{Text: "Acme Corp", Type: "PARTY"}}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Start != 500 || got[0].End != 509 {
		t.Errorf("expected [500,509), got [%d,%d)", got[0].Start, got[0].End)
	}
}

func TestAnchor_RuneOffsetsWithMultibyteText(t *testing.T) {
	text := "Käuferin Müller GmbH zahlt €500."
	got := Anchor(text, 0, []Entity{{Text: "Müller GmbH", Type: "PARTY"}}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Start != 9 || got[0].End != 20 {
		t.Errorf("expected rune offsets [9,20), got [%d,%d)", got[0].Start, got[0].End)
	}
	if str := string([]rune(text)[got[0].Start:got[0].End]); str != "Müller GmbH" {
		t.Errorf("offsets address %q", str)
	}
}

func TestAnchor_TrimsPaddedProposals(t *testing.T) {
	text := "Plaintiff Acme Corp denies all claims."
	got := Anchor(text, 0, []Entity{{Text: " Acme Corp ", Type: "PARTY"}}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Start != 10 || got[0].End != 19 {
		t.Errorf("expected [10,19), got [%d,%d)", got[0].Start, got[0].End)
	}
	if got[0].Text != "Acme Corp" {
		t.Errorf("candidate text includes padding: %q", got[0].Text)
	}
}

func TestAnchor_SkipsUnvalidatedEntities(t *testing.T) {
	text := "Acme Corp and John Doe."
	got := Anchor(text, 0, []Entity{
		{Text: "Acme Corp", Type: "PARTY"},
		{Text: "John Doe", Type: "PERSON"},
	}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected only the known-type candidate, got %d", len(got))
	}
	if got[0].Text != "Acme Corp" {
		t.Errorf("wrong candidate: %+v", got[0])
	}
}

func TestAnchor_TextNotInWindow(t *testing.T) {
	got := Anchor("Nothing relevant here.", 0,
		[]Entity{{Text: "Acme Corp", Type: "PARTY"}}, testTypes)

	if len(got) != 0 {
		t.Errorf("expected no candidates for unmatched text, got %d", len(got))
	}
}

func TestAnchor_BatchDoesNotDoubleClaim(t *testing.T) {
	// "force majeure" covers "majeure"; the shorter proposal must not
	// produce a second candidate over the same characters.
	text := "The force majeure clause applies."
	got := Anchor(text, 0, []Entity{
		{Text: "force majeure", Type: "LEGAL_TERM"},
		{Text: "majeure", Type: "LEGAL_TERM"},
	}, testTypes)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].Text != "force majeure" {
		t.Errorf("expected the first proposal to win, got %+v", got[0])
	}
}

func TestAnchor_DuplicateProposalsCollapse(t *testing.T) {
	text := "Signed on 2024-01-15 in Berlin."
	got := Anchor(text, 0, []Entity{
		{Text: "2024-01-15", Type: "DATE"},
		{Text: "2024-01-15", Type: "DATE"},
	}, testTypes)

	if len(got) != 1 {
		t.Errorf("expected duplicate proposals to collapse, got %d", len(got))
	}
}
