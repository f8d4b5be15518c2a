package markup

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	// MessageLimit is the capacity of one text message, in characters.
	MessageLimit = 4096
	// CaptionLimit is the capacity of a media caption, in characters.
	CaptionLimit = 1024
)

// atom is one indivisible piece of markup: a visible character (a rune or a
// whole character reference) or a zero-width tag.
type atom struct {
	raw   string
	width int
	space bool
	tag   string // lower-case tag name, empty for text
	open  bool
	close bool
}

// Split cuts text into parts of at most limit visible characters.
func Split(text string, limit int) []string {
	return Chunks(text, limit, limit)
}

// Chunks cuts text into parts whose first part holds at most first visible
// characters and every following part at most rest. Each cut is made at the
// last whitespace at or before the limit, or hard at the limit when the
// window has no whitespace. Tags open at a cut are closed at the end of the
// part and reopened at the start of the next one, so every part stays
// well-formed. Character references are never split.
func Chunks(text string, first, rest int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if first <= 0 || rest <= 0 || utf8.RuneCountInString(text) <= first {
		return []string{text}
	}

	atoms := tokenize(text)
	var (
		parts []string
		stack []atom // open tags at the current position
		start int
		limit = first
	)
	for start < len(atoms) {
		// Whitespace at a part boundary is dropped.
		for start < len(atoms) && atoms[start].space {
			start++
		}
		if start >= len(atoms) {
			break
		}

		end, width := start, 0
		for end < len(atoms) && width+atoms[end].width <= limit {
			width += atoms[end].width
			end++
		}
		if end < len(atoms) {
			if cut := lastSpace(atoms, start, end); cut > start {
				end = cut
			}
		}

		var b strings.Builder
		for _, t := range stack {
			b.WriteString(t.raw)
		}
		visible := false
		for _, a := range atoms[start:end] {
			b.WriteString(a.raw)
			switch {
			case a.open:
				stack = append(stack, a)
			case a.close:
				stack = popTag(stack, a.tag)
			case a.width > 0 && !a.space:
				visible = true
			}
		}
		body := strings.TrimRightFunc(b.String(), unicode.IsSpace)
		for i := len(stack) - 1; i >= 0; i-- {
			body += "</" + stack[i].tag + ">"
		}
		if visible {
			parts = append(parts, body)
		}

		start = end
		limit = rest
	}
	return parts
}

// lastSpace returns the index of the last whitespace atom in (start, end],
// or -1. An index equal to end means the window ends right before a space.
func lastSpace(atoms []atom, start, end int) int {
	for i := end; i > start; i-- {
		if i < len(atoms) && atoms[i].space {
			return i
		}
	}
	return -1
}

func popTag(stack []atom, name string) []atom {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].tag == name {
			return append(stack[:i], stack[i+1:]...)
		}
	}
	return stack
}

func tokenize(text string) []atom {
	var atoms []atom
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Unparseable remainder is kept verbatim as text.
				atoms = append(atoms, textAtoms(string(z.Raw()))...)
			}
			return atoms
		}
		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			atoms = append(atoms, textAtoms(raw)...)
		case html.StartTagToken:
			name, _ := z.TagName()
			atoms = append(atoms, atom{raw: raw, tag: string(name), open: true})
		case html.EndTagToken:
			name, _ := z.TagName()
			atoms = append(atoms, atom{raw: raw, tag: string(name), close: true})
		default:
			atoms = append(atoms, atom{raw: raw})
		}
	}
}

func textAtoms(raw string) []atom {
	atoms := make([]atom, 0, len(raw))
	for i := 0; i < len(raw); {
		if raw[i] == '&' {
			if j := strings.IndexByte(raw[i:], ';'); j > 1 && j <= 10 {
				atoms = append(atoms, atom{raw: raw[i : i+j+1], width: 1})
				i += j + 1
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(raw[i:])
		atoms = append(atoms, atom{raw: raw[i : i+size], width: 1, space: unicode.IsSpace(r)})
		i += size
	}
	return atoms
}
