package recognize

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/annolex/internal/engine"
)

const (
	minEntityLen = 2
	maxEntityLen = 200
)

// ValidateEntity checks a model proposal before anchoring. The type
// must be one of the known entity type names; the text must be a
// plausible mention. Length limits are in runes, the unit every
// offset in the system uses.
func ValidateEntity(e Entity, knownTypes map[string]bool) bool {
	text := strings.TrimSpace(e.Text)
	if n := utf8.RuneCountInString(text); n < minEntityLen || n > maxEntityLen {
		return false
	}
	if !knownTypes[e.Type] {
		return false
	}
	return true
}

// Anchor turns validated entity proposals into offset-bearing span
// candidates by locating every occurrence of each proposal's verbatim
// text inside the window. Proposals are trimmed the same way
// validation trims them, so surrounding whitespace the model included
// never ends up inside a span. Offsets are rune offsets, shifted by
// the window's absolute start. Occurrences already covered by an
// earlier proposal in the same batch are skipped so one batch never
// proposes two candidates for the same characters.
func Anchor(windowText string, windowStart int, entities []Entity, knownTypes map[string]bool) []engine.Candidate {
	var out []engine.Candidate
	claimed := make(map[[2]int]bool)

	for _, e := range entities {
		if !ValidateEntity(e, knownTypes) {
			continue
		}
		needle := strings.TrimSpace(e.Text)
		byteOff := 0
		for {
			idx := strings.Index(windowText[byteOff:], needle)
			if idx < 0 {
				break
			}
			abs := byteOff + idx
			start := windowStart + utf8.RuneCountInString(windowText[:abs])
			end := start + utf8.RuneCountInString(needle)

			key := [2]int{start, end}
			if !claimed[key] && !overlapsClaimed(claimed, start, end) {
				claimed[key] = true
				out = append(out, engine.Candidate{
					Start: start,
					End:   end,
					Type:  e.Type,
					Text:  needle,
				})
			}
			byteOff = abs + len(needle)
		}
	}
	return out
}

func overlapsClaimed(claimed map[[2]int]bool, start, end int) bool {
	for k := range claimed {
		if k[0] < end && k[1] > start {
			return true
		}
	}
	return false
}
