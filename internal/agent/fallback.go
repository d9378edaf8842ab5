package agent

import (
	"regexp"
	"strings"
	"unicode"
)

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// synthesize runs the agent's fallback template and guarantees every declared
// output is present and non-empty.
func synthesize(def *Definition, f Fields) Fields {
	raw := def.Fallback(f)
	out := make(Fields, len(def.Outputs))
	for _, o := range def.Outputs {
		v := trim(raw[o])
		if v == "" {
			v = "Content for " + def.Name + " is being prepared."
		}
		out[o] = v
	}
	return out
}

// FirstSentences returns up to n sentences from text, collapsing whitespace.
func FirstSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || text == "" {
		return text
	}
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return text[:i+1]
		}
	}
	return text
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	if len(r) > 1 && unicode.IsUpper(r[1]) {
		return s // acronym
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Lines splits a newline list, dropping blanks and list markers.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(l), ""))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
