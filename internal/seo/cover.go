package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"strings"
)

var coverPalette = []string{"#4f46e5", "#0891b2", "#059669", "#d97706", "#db2777", "#7c3aed"}

const coverLineLen = 28

// RenderCover draws a 1200x630 social card with the page title. The colour
// is derived from the keyword so regenerated pages keep their cover.
func RenderCover(title, keyword string) []byte {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	bg := coverPalette[h.Sum32()%uint32(len(coverPalette))]

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630" viewBox="0 0 1200 630">`)
	fmt.Fprintf(&buf, `<rect width="1200" height="630" fill="%s"/>`, bg)
	for i, line := range wrap(title, coverLineLen, 3) {
		fmt.Fprintf(&buf, `<text x="80" y="%d" font-family="Inter, sans-serif" font-size="64" font-weight="700" fill="#ffffff">`, 220+i*84)
		xml.EscapeText(&buf, []byte(line))
		buf.WriteString(`</text>`)
	}
	buf.WriteString(`<text x="80" y="560" font-family="Inter, sans-serif" font-size="32" fill="#ffffff" fill-opacity="0.8">`)
	xml.EscapeText(&buf, []byte(keyword))
	buf.WriteString(`</text></svg>`)
	return buf.Bytes()
}

// wrap splits s into at most limit lines of roughly width runes, breaking on spaces.
func wrap(s string, width, limit int) []string {
	var lines []string
	var cur []string
	n := 0
	for _, w := range strings.Fields(s) {
		l := len([]rune(w))
		if n > 0 && n+1+l > width {
			lines = append(lines, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		cur = append(cur, w)
		if n > 0 {
			n++
		}
		n += l
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	if len(lines) > limit {
		lines = lines[:limit]
		lines[limit-1] += "..."
	}
	return lines
}
