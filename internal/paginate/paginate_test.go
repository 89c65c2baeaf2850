package paginate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// restore drops the synthetic fence lines and joins the pages back together.
func restore(pages []page) string {
	var lines []string
	for _, p := range pages {
		l := p.lines
		if p.reopened {
			l = l[1:]
		}
		if p.closed {
			l = l[:len(l)-1]
		}
		lines = append(lines, l...)
	}
	return strings.Join(lines, separator)
}

func fenceCount(s string) int {
	n := 0
	for _, line := range strings.Split(s, separator) {
		if _, ok := fenceTag(line); ok {
			n++
		}
	}
	return n
}

// emptyBlocks counts fenced blocks on a page that hold no lines.
func emptyBlocks(s string) int {
	n := 0
	lines := strings.Split(s, separator)
	open := false
	for i, line := range lines {
		if _, ok := fenceTag(line); !ok {
			continue
		}
		if !open && i+1 < len(lines) {
			if _, next := fenceTag(lines[i+1]); next {
				n++
			}
		}
		open = !open
	}
	return n
}

func TestPaginate_ShortTextIsOnePage(t *testing.T) {
	require.Equal(t, []string{"4"}, Paginate("4", 4096))
	require.Equal(t, []string{"a\nb\nc"}, Paginate("a\nb\nc", 4096))
}

func TestPaginate_Empty(t *testing.T) {
	require.Empty(t, Paginate("", 10))
}

func TestPaginate_PacksGreedily(t *testing.T) {
	got := Paginate("aaaa\nbbbb\ncccc", 9)
	require.Equal(t, []string{"aaaa\nbbbb", "cccc"}, got)
}

func TestPaginate_RoundTripAndLimit(t *testing.T) {
	for _, limit := range []int{60, 100, 333, 2000} {
		// widest code line that still fits between a reopened fence and a closer
		widest := limit - runes("```python") - runes(separator+fence) - runes(separator)

		var b strings.Builder
		for i := 0; i < 200; i++ {
			b.WriteString(strings.Repeat("word ", i%11+1))
			b.WriteString("\n")
			if i%40 == 10 {
				b.WriteString("```python\nprint('hi')\nfor x in range(3):\n    print(x)\n```\n")
			}
			if i%50 == 25 {
				b.WriteString("```python\n")
				for w := widest - 2; w <= widest; w++ {
					b.WriteString(strings.Repeat("x", w) + "\n")
				}
				b.WriteString("```\n")
			}
		}
		text := b.String()

		pages := split(text, limit)
		require.Equal(t, text, restore(pages), "limit=%d", limit)
		for _, p := range Paginate(text, limit) {
			require.LessOrEqual(t, utf8.RuneCountInString(p), limit, "limit=%d:\n%s", limit, p)
			require.Zero(t, fenceCount(p)%2, "unbalanced fences at limit=%d:\n%s", limit, p)
			require.Zero(t, emptyBlocks(p), "empty block at limit=%d:\n%s", limit, p)
		}
	}
}

func TestPaginate_NearLimitLinesInsideFence(t *testing.T) {
	// "```python" + 16 + 2 separators + "```" is exactly 30
	x, y, z := strings.Repeat("x", 16), strings.Repeat("y", 16), strings.Repeat("z", 16)
	text := "```python\n" + x + "\n" + y + "\n" + z + "\n```"

	pages := Paginate(text, 30)
	require.Equal(t, []string{
		"```python\n" + x + "\n```",
		"```python\n" + y + "\n```",
		"```python\n" + z + "\n```",
	}, pages)
	for _, p := range pages {
		require.LessOrEqual(t, utf8.RuneCountInString(p), 30)
	}
	require.Equal(t, text, restore(split(text, 30)))
}

func TestPaginate_OpenerMovesWithItsBlock(t *testing.T) {
	code := strings.Repeat("x", 16)
	text := "intro\n```python\n" + code + "\n```"

	pages := Paginate(text, 30)
	require.Equal(t, []string{"intro", "```python\n" + code + "\n```"}, pages)
}

func TestPaginate_CodeLineTooWideForMarkers(t *testing.T) {
	// each line fits the limit alone but not with its fences
	x, y := strings.Repeat("x", 15), strings.Repeat("y", 15)
	text := "```python\n" + x + "\n" + y + "\n```"

	pages := Paginate(text, 20)
	require.Equal(t, []string{
		"```python\n" + x + "\n```",
		"```python\n" + y + "\n```",
	}, pages)
	for _, p := range pages {
		require.Zero(t, emptyBlocks(p))
	}
}

func TestPaginate_ClosingLineUsesItsReserve(t *testing.T) {
	// the indented closer is wider than a synthetic one, so the page breaks earlier
	text := "```go\n" + strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 10) + "\n   ```"
	for _, p := range Paginate(text, 26) {
		require.LessOrEqual(t, utf8.RuneCountInString(p), 26, p)
		require.Zero(t, fenceCount(p)%2, p)
	}
}

func TestPaginate_FenceSpanningBoundary(t *testing.T) {
	text := "intro\n```go\nline one\nline two\nline three\n```\noutro"
	pages := Paginate(text, 30)
	require.Greater(t, len(pages), 1)

	split := -1
	for i, p := range pages {
		require.Zero(t, fenceCount(p)%2, "page %d: %q", i, p)
		require.LessOrEqual(t, utf8.RuneCountInString(p), 30)
		if strings.HasPrefix(p, "```go\n") && i > 0 && strings.HasSuffix(pages[i-1], "\n```") {
			split = i
		}
	}
	require.NotEqual(t, -1, split, "expected a page reopening the go block: %q", pages)
}

func TestPaginate_CountsRunes(t *testing.T) {
	text := strings.Repeat("ж", 5) + "\n" + strings.Repeat("ж", 5)
	require.Equal(t, []string{text}, Paginate(text, 11))
	require.Len(t, Paginate(text, 10), 2)
}

func TestPaginate_OverlongParagraphIsNotSplit(t *testing.T) {
	long := strings.Repeat("x", 50)
	pages := Paginate("short\n"+long+"\ntail", 20)

	require.Equal(t, []string{"short", long, "tail"}, pages)
	require.Greater(t, utf8.RuneCountInString(pages[1]), 20)
}

func TestPaginate_NoLimit(t *testing.T) {
	require.Equal(t, []string{"a\nb"}, Paginate("a\nb", 0))
}
