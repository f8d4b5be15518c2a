// Package markup turns source message text plus style annotations into the
// HTML subset accepted by the bot API, and splits long markup into
// platform-sized messages without breaking tag pairs.
package markup

import (
	"html"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the closed set of annotation kinds delivered by the source protocol.
type Kind int

const (
	KindUnknown Kind = iota
	KindTextLink
	KindURL
	KindBold
	KindItalic
	KindCode
	KindPre
	KindMentionName
	KindMention
	KindStrike
	KindUnderline
	KindPhone
	KindEmail
	KindBotCommand
)

// Annotation marks a span of the message text. Offset and Length are in
// UTF-16 code units, as sent by the source protocol.
type Annotation struct {
	Kind   Kind
	Offset int
	Length int
	URL    string // KindTextLink
	UserID int64  // KindMentionName
}

// Span is an annotation converted to rune indexes, [Start, End).
type Span struct {
	Kind   Kind
	Start  int
	End    int
	URL    string
	UserID int64
}

// Spans converts UTF-16 addressed annotations to rune spans over text.
// Offsets outside the text are clamped; a boundary falling inside a
// surrogate pair widens the span to cover the whole code point.
func Spans(text string, anns []Annotation) []Span {
	if len(anns) == 0 {
		return nil
	}

	// unitStart[i] is the UTF-16 offset where rune i begins; the last entry is the total length.
	unitStart := make([]int, 0, utf8.RuneCountInString(text)+1)
	units := 0
	for _, r := range text {
		unitStart = append(unitStart, units)
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	unitStart = append(unitStart, units)
	runeCount := len(unitStart) - 1

	floor := func(u int) int {
		if u <= 0 {
			return 0
		}
		if u >= units {
			return runeCount
		}
		i := sort.SearchInts(unitStart, u)
		if unitStart[i] != u {
			i--
		}
		return i
	}
	ceil := func(u int) int {
		if u <= 0 {
			return 0
		}
		if u >= units {
			return runeCount
		}
		return sort.SearchInts(unitStart, u)
	}

	spans := make([]Span, 0, len(anns))
	for _, a := range anns {
		if a.Length <= 0 {
			continue
		}
		spans = append(spans, Span{
			Kind:   a.Kind,
			Start:  floor(a.Offset),
			End:    ceil(a.Offset + a.Length),
			URL:    a.URL,
			UserID: a.UserID,
		})
	}
	return spans
}

// Render converts text and its UTF-16 annotations into sanitized markup.
func Render(text string, anns []Annotation) string {
	return RenderSpans(text, Spans(text, anns))
}

// RenderSpans converts text and rune spans into sanitized markup. Spans are
// ordered by start; an overlapping span has its start clipped to the end of
// the previous one, and a span fully covered by emitted output is skipped.
func RenderSpans(text string, spans []Span) string {
	runes := []rune(text)
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	last := 0
	for _, s := range ordered {
		start, end := clamp(s.Start, len(runes)), clamp(s.End, len(runes))
		if end <= last {
			continue
		}
		if start < last {
			start = last
		}
		if start >= end {
			continue
		}
		b.WriteString(html.EscapeString(string(runes[last:start])))
		writeSpan(&b, s, string(runes[start:end]))
		last = end
	}
	b.WriteString(html.EscapeString(string(runes[last:])))
	return b.String()
}

func writeSpan(b *strings.Builder, s Span, part string) {
	text := html.EscapeString(part)
	switch s.Kind {
	case KindTextLink:
		if s.URL == "" {
			b.WriteString(text)
			return
		}
		writeAnchor(b, s.URL, text)
	case KindURL:
		writeAnchor(b, part, text)
	case KindBold:
		writeTag(b, "b", text)
	case KindItalic:
		writeTag(b, "i", text)
	case KindCode:
		writeTag(b, "code", text)
	case KindPre:
		writeTag(b, "pre", text)
	case KindStrike:
		writeTag(b, "s", text)
	case KindUnderline:
		writeTag(b, "u", text)
	case KindMentionName:
		if s.UserID == 0 {
			b.WriteString(text)
			return
		}
		writeAnchor(b, "tg://user?id="+strconv.FormatInt(s.UserID, 10), text)
	case KindPhone:
		writeAnchor(b, "tel:"+part, text)
	case KindEmail:
		writeAnchor(b, "mailto:"+part, text)
	case KindMention, KindBotCommand, KindUnknown:
		b.WriteString(text)
	default:
		b.WriteString(text)
	}
}

func writeAnchor(b *strings.Builder, href, text string) {
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(href))
	b.WriteString(`">`)
	b.WriteString(text)
	b.WriteString(`</a>`)
}

func writeTag(b *strings.Builder, name, text string) {
	b.WriteString("<" + name + ">")
	b.WriteString(text)
	b.WriteString("</" + name + ">")
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
