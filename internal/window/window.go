// Package window splits document text into offset-preserving windows
// for recognition. Unlike generic chunking, windows never overlap and
// every window's text is the exact substring of the document at
// [Start, End), so recognition candidates anchored inside a window
// shift cleanly to absolute document offsets.
package window

import "strings"

// Window is one recognition unit. Text == document[Start:End) in
// runes.
type Window struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Config controls windowing.
type Config struct {
	// WindowSize is the target window length in runes. Windows end on
	// paragraph boundaries where possible, sentence boundaries inside
	// oversized paragraphs.
	WindowSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{WindowSize: 4000}
}

type span struct{ start, end int }

// Split partitions text into windows. Concatenating window texts with
// the skipped separators restores the document; every window is a
// verbatim slice.
func Split(text string, cfg Config) []Window {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 4000
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	paragraphs := paragraphSpans(runes)

	var windows []Window
	cur := span{start: -1}

	flush := func() {
		if cur.start >= 0 && cur.end > cur.start {
			windows = append(windows, Window{
				Start: cur.start,
				End:   cur.end,
				Text:  string(runes[cur.start:cur.end]),
			})
		}
		cur = span{start: -1}
	}

	for _, para := range paragraphs {
		// A single paragraph larger than the target becomes its own
		// sequence of sentence-bounded windows.
		if para.end-para.start > cfg.WindowSize {
			flush()
			for _, sub := range sentencePack(runes, para, cfg.WindowSize) {
				windows = append(windows, Window{
					Start: sub.start,
					End:   sub.end,
					Text:  string(runes[sub.start:sub.end]),
				})
			}
			continue
		}
		if cur.start < 0 {
			cur = para
			continue
		}
		if para.end-cur.start > cfg.WindowSize {
			flush()
			cur = para
			continue
		}
		cur.end = para.end
	}
	flush()

	return windows
}

// paragraphSpans finds the rune ranges of non-blank paragraphs,
// splitting on blank lines.
func paragraphSpans(runes []rune) []span {
	var spans []span
	start := -1
	i := 0
	for i <= len(runes) {
		atSep := i >= len(runes) ||
			(runes[i] == '\n' && i+1 < len(runes) && runes[i+1] == '\n')
		if atSep {
			if start >= 0 && i > start {
				spans = append(spans, span{start: start, end: i})
				start = -1
			}
			if i >= len(runes) {
				break
			}
			// Skip the blank-line run.
			for i < len(runes) && runes[i] == '\n' {
				i++
			}
			continue
		}
		if start < 0 && !isSpace(runes[i]) {
			start = i
		}
		i++
	}
	return spans
}

// sentencePack splits an oversized paragraph at sentence boundaries,
// greedily packing sentences up to the target size.
func sentencePack(runes []rune, para span, target int) []span {
	boundaries := sentenceBoundaries(runes, para)

	var out []span
	cur := span{start: para.start}
	prev := para.start
	for _, b := range boundaries {
		if b-cur.start > target && prev > cur.start {
			cur.end = prev
			out = append(out, cur)
			cur = span{start: skipSpace(runes, prev, para.end)}
		}
		prev = b
	}
	cur.end = para.end
	if cur.end > cur.start {
		out = append(out, cur)
	}
	return out
}

// sentenceBoundaries returns positions just after terminal
// punctuation followed by a space, plus the paragraph end.
func sentenceBoundaries(runes []rune, para span) []int {
	var out []int
	for i := para.start; i < para.end-1; i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && runes[i+1] == ' ' {
			out = append(out, i+1)
		}
	}
	out = append(out, para.end)
	return out
}

func skipSpace(runes []rune, i, end int) int {
	for i < end && isSpace(runes[i]) {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	return strings.ContainsRune(" \t\r\n", r)
}
