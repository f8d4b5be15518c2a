// Package filter scrubs blacklisted phrases from source text and classifies
// rendered posts against stop-word and alert-word lists.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"channel-relay/markup"
)

// phraseSpace matches one or more whitespace characters, including
// non-breaking and other Unicode spaces.
const phraseSpace = `[\s\p{Z}]+`

// Blacklist removes configured phrases from text. Whitespace inside a phrase
// matches any run of whitespace, and matching ignores case.
type Blacklist struct {
	patterns []*regexp.Regexp
}

// NewBlacklist compiles one pattern per non-blank phrase.
func NewBlacklist(phrases []string) (*Blacklist, error) {
	b := &Blacklist{}
	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		re, err := regexp.Compile("(?i)" + strings.Join(words, phraseSpace))
		if err != nil {
			return nil, fmt.Errorf("failed to compile blacklist phrase %q: %w", phrase, err)
		}
		b.patterns = append(b.patterns, re)
	}
	return b, nil
}

// Remove returns text with every blacklisted phrase removed and spacing normalized.
func (b *Blacklist) Remove(text string) string {
	out, _ := b.Sanitize(text, nil)
	return out
}

// Sanitize removes blacklisted phrases from text and moves spans so they keep
// covering the same surviving characters. Spans whose characters were all
// removed are dropped. Spacing is only normalized where something was removed,
// never inside code or preformatted spans, and trailing blank lines are
// stripped. Removal repeats until nothing matches, so the result is a fixed point.
func (b *Blacklist) Sanitize(text string, spans []markup.Span) (string, []markup.Span) {
	runes := []rune(text)
	// kept holds the original rune indexes still present, in order. A gap
	// between neighbours marks a removal.
	kept := make([]int, len(runes))
	for i := range kept {
		kept[i] = i
	}
	verbatim := make([]bool, len(runes))
	for _, s := range spans {
		if s.Kind != markup.KindCode && s.Kind != markup.KindPre {
			continue
		}
		for i := max(s.Start, 0); i < min(s.End, len(runes)); i++ {
			verbatim[i] = true
		}
	}

	for {
		before := len(kept)
		for _, re := range b.patterns {
			kept = removeMatches(re, runes, kept)
		}
		kept = normalizeSpacing(runes, verbatim, kept)
		if len(kept) == before {
			break
		}
	}

	out := make([]rune, len(kept))
	for i, idx := range kept {
		out[i] = runes[idx]
	}

	var moved []markup.Span
	for _, s := range spans {
		start := sort.SearchInts(kept, s.Start)
		end := sort.SearchInts(kept, s.End)
		if start >= end {
			continue
		}
		s.Start, s.End = start, end
		moved = append(moved, s)
	}
	return string(out), moved
}

func removeMatches(re *regexp.Regexp, runes []rune, kept []int) []int {
	cur := make([]rune, len(kept))
	for i, idx := range kept {
		cur[i] = runes[idx]
	}
	s := string(cur)
	matches := re.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return kept
	}

	drop := make([]bool, len(kept))
	for _, m := range matches {
		from := utf8.RuneCountInString(s[:m[0]])
		to := from + utf8.RuneCountInString(s[m[0]:m[1]])
		for i := from; i < to; i++ {
			drop[i] = true
		}
	}
	out := kept[:0:0]
	for i, idx := range kept {
		if !drop[i] {
			out = append(out, idx)
		}
	}
	return out
}

// normalizeSpacing rewrites the whitespace runs that touch a removal: a run
// at the start of the text is dropped, a run holding newlines keeps at most
// two of them and any other run keeps its first character. Trailing
// whitespace is always dropped. Runes in verbatim spans are never whitespace
// here.
func normalizeSpacing(runes []rune, verbatim []bool, kept []int) []int {
	space := func(idx int) bool {
		r := runes[idx]
		return !verbatim[idx] && (unicode.IsSpace(r) || unicode.Is(unicode.Zs, r))
	}

	out := make([]int, 0, len(kept))
	for i := 0; i < len(kept); {
		if !space(kept[i]) {
			out = append(out, kept[i])
			i++
			continue
		}
		j := i
		for j < len(kept) && space(kept[j]) {
			j++
		}
		switch {
		case j == len(kept):
		case !touchesRemoval(kept, i, j):
			out = append(out, kept[i:j]...)
		case i == 0:
		default:
			out = append(out, squeeze(runes, kept[i:j])...)
		}
		i = j
	}
	return out
}

// touchesRemoval reports whether a gap lies at either edge of kept[i:j] or
// inside it.
func touchesRemoval(kept []int, i, j int) bool {
	if i == 0 && kept[0] > 0 {
		return true
	}
	for k := max(i, 1); k <= j && k < len(kept); k++ {
		if kept[k]-kept[k-1] > 1 {
			return true
		}
	}
	return false
}

func squeeze(runes []rune, run []int) []int {
	var newlines []int
	for _, idx := range run {
		if runes[idx] == '\n' && len(newlines) < 2 {
			newlines = append(newlines, idx)
		}
	}
	if len(newlines) == 0 {
		return run[:1]
	}
	return newlines
}
