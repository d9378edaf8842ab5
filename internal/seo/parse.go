package seo

import (
	"encoding/json"
	"strings"

	"github.com/toolsdir/api/internal/models"
)

// ParseSections accepts either a JSON array of {heading, body} objects or
// markdown-style "## heading" blocks.
func ParseSections(raw string) []models.Section {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var fromJSON []models.Section
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &fromJSON) == nil {
		return compactSections(fromJSON)
	}

	var out []models.Section
	var cur *models.Section
	var body []string
	flush := func() {
		if cur != nil {
			cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
			out = append(out, *cur)
		}
		body = body[:0]
	}
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			cur = &models.Section{Heading: strings.TrimSpace(strings.TrimLeft(trimmed, "#"))}
			continue
		}
		if cur == nil {
			if trimmed == "" {
				continue
			}
			cur = &models.Section{}
		}
		body = append(body, line)
	}
	flush()
	return compactSections(out)
}

func compactSections(in []models.Section) []models.Section {
	var out []models.Section
	for _, s := range in {
		s.Heading = strings.TrimSpace(s.Heading)
		s.Body = strings.TrimSpace(s.Body)
		if s.Heading == "" && s.Body == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ParseFAQ accepts either a JSON array of {question, answer} objects or
// "Q: ... / A: ..." blocks.
func ParseFAQ(raw string) []models.FAQ {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var fromJSON []models.FAQ
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &fromJSON) == nil {
		return compactFAQ(fromJSON)
	}

	var out []models.FAQ
	var cur *models.FAQ
	inAnswer := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case hasPrefixFold(trimmed, "q:"):
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &models.FAQ{Question: strings.TrimSpace(trimmed[2:])}
			inAnswer = false
		case hasPrefixFold(trimmed, "a:") && cur != nil:
			cur.Answer = strings.TrimSpace(trimmed[2:])
			inAnswer = true
		case trimmed != "" && cur != nil:
			if inAnswer {
				cur.Answer += " " + trimmed
			} else {
				cur.Question += " " + trimmed
			}
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return compactFAQ(out)
}

func compactFAQ(in []models.FAQ) []models.FAQ {
	var out []models.FAQ
	for _, f := range in {
		f.Question = strings.TrimSpace(f.Question)
		f.Answer = strings.TrimSpace(f.Answer)
		if f.Question == "" || f.Answer == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
