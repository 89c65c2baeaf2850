// Package paginate splits long replies into chat-sized messages without
// leaving a fenced code block open across a message boundary.
package paginate

import (
	"strings"
	"unicode/utf8"
)

const (
	separator = "\n"
	fence     = "```"
)

// page is one outgoing message. reopened and closed mark the synthetic fence
// lines added at the page edges.
type page struct {
	lines    []string
	reopened bool
	closed   bool
}

func (p page) String() string {
	return strings.Join(p.lines, separator)
}

// Paginate packs the lines of text greedily into pages of at most limit runes.
// A page that ends inside a fenced block gets a closing fence, and the next page
// reopens it with the same language tag. A fence opener never ends a page: it
// moves to the next one with its block. A line that does not fit on a page even
// with only the fence markers it needs is emitted unsplit and exceeds the limit.
func Paginate(text string, limit int) []string {
	pages := split(text, limit)
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.String())
	}
	return out
}

func split(text string, limit int) []page {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []page{{lines: []string{text}}}
	}

	lines := strings.Split(text, separator)
	reserves := closeReserves(lines)

	var (
		pages      []page
		cur        page
		size       int
		body       int  // lines on cur that came from text
		lastOpened bool // the last body line on cur opened the current block
		inCode     bool
		lang       string
		reserve    int
	)

	for i, line := range lines {
		nextIn, nextLang, nextReserve := inCode, lang, reserve
		closing := false
		if tag, ok := fenceTag(line); ok {
			if inCode {
				nextIn, nextLang, nextReserve = false, "", 0
				closing = true
			} else {
				nextIn, nextLang, nextReserve = true, tag, reserves[i]
			}
		}

		added := runes(line)
		if len(cur.lines) > 0 {
			added += runes(separator)
		}

		// the closing line fits in the reserve kept for it
		movable := body > 0 && !(body == 1 && lastOpened)
		if !closing && movable && size+added+nextReserve > limit {
			var carry string
			if lastOpened {
				carry = cur.lines[len(cur.lines)-1]
				cur.lines = cur.lines[:len(cur.lines)-1]
				inCode, lang, reserve = false, "", 0
			}
			if inCode {
				cur.lines = append(cur.lines, fence)
				cur.closed = true
			}
			pages = append(pages, cur)

			cur, size, body = page{}, 0, 0
			switch {
			case carry != "":
				cur.lines = []string{carry}
				size, body = runes(carry), 1
				inCode, lang, reserve = true, nextLangOf(carry), reserves[i-1]
			case inCode:
				opener := fence + lang
				cur = page{lines: []string{opener}, reopened: true}
				size = runes(opener)
			}
			added = runes(line)
			if len(cur.lines) > 0 {
				added += runes(separator)
			}
		}

		cur.lines = append(cur.lines, line)
		size += added
		body++
		lastOpened = nextIn && !inCode
		inCode, lang, reserve = nextIn, nextLang, nextReserve
	}
	return append(pages, cur)
}

// closeReserves maps the index of every fence opener to the room its block
// needs at a page end: a separator plus the wider of a synthetic fence and the
// block's own closing line.
func closeReserves(lines []string) map[int]int {
	out := map[int]int{}
	open := -1
	for i, line := range lines {
		if _, ok := fenceTag(line); !ok {
			continue
		}
		if open < 0 {
			open = i
			out[i] = runes(separator) + runes(fence)
			continue
		}
		out[open] = runes(separator) + max(runes(fence), runes(line))
		open = -1
	}
	return out
}

func nextLangOf(opener string) string {
	tag, _ := fenceTag(opener)
	return tag
}

// fenceTag reports whether line opens or closes a fenced block and returns
// the language tag that follows the marker.
func fenceTag(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, fence)), true
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}
