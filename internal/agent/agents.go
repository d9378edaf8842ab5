package agent

import (
	"fmt"
	"net/url"
	"strings"
)

// Agent names.
const (
	ColdEmail       = "cold-email"
	ToolCopy        = "tool-copy"
	SEOResearch     = "seo-research"
	SEOPage         = "seo-page"
	ToolDiscovery   = "tool-discovery"
	PromptDiscovery = "prompt-discovery"
	NewsSummary     = "news-summary"
)

const copywriterSystem = "You are a senior B2B copywriter for an AI tools directory. Write concise, concrete copy without hype or invented statistics."

// Definitions returns fresh definitions of every built-in agent.
func Definitions() []*Definition {
	return []*Definition{
		coldEmail(),
		toolCopy(),
		seoResearch(),
		seoPage(),
		toolDiscovery(),
		promptDiscovery(),
		newsSummary(),
	}
}

// DefaultRegistry builds a registry holding the built-in agents.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Definitions()...)
}

var emailGreetings = map[string]string{
	"professional": "Hello",
	"friendly":     "Hi there",
	"persuasive":   "Hello",
	"casual":       "Hey",
}

func coldEmail() *Definition {
	return &Definition{
		Name:        ColdEmail,
		Description: "Cold outreach email template",
		Required:    []string{"recipientRole", "product", "goal"},
		Optional:    []string{"tone", "senderName", "companyName"},
		Enums:       map[string][]string{"tone": {"professional", "friendly", "persuasive", "casual"}},
		Outputs:     []string{"subject", "body", "callToAction"},
		System:      copywriterSystem,
		MaxTokens:   800,
		Prompt: func(f Fields) string {
			parts := []string{
				"Write a cold email.",
				"Recipient role: " + f["recipientRole"],
				"Product: " + f["product"],
				"Goal of the email: " + f["goal"],
				"Tone: " + f.Get("tone", "professional"),
			}
			if s := f.Get("senderName", ""); s != "" {
				parts = append(parts, "Sender name: "+s)
			}
			if c := f.Get("companyName", ""); c != "" {
				parts = append(parts, "Sender company: "+c)
			}
			parts = append(parts, "Keep the body under 150 words.")
			return strings.Join(parts, "\n")
		},
		Fallback: func(f Fields) Fields {
			product, role, goal := f["product"], f["recipientRole"], lowerFirst(f["goal"])
			greeting := emailGreetings[f.Get("tone", "professional")]
			if greeting == "" {
				greeting = "Hello"
			}
			sender := f.Get("senderName", "The team")
			if c := f.Get("companyName", ""); c != "" {
				sender += ", " + c
			}
			body := strings.Join([]string{
				greeting + ",",
				"",
				fmt.Sprintf("I'm reaching out because teams with a %s often tell us the same thing: there is never enough time to %s.", strings.ToLower(role), goal),
				fmt.Sprintf("%s was built for exactly that. It takes the repetitive parts off your plate so you can focus on the work that moves the needle.", product),
				"",
				"Best regards,",
				sender,
			}, "\n")
			return Fields{
				"subject":      fmt.Sprintf("%s: a faster way to %s", product, goal),
				"body":         body,
				"callToAction": fmt.Sprintf("Would you be open to a 15-minute call next week to see how %s can help you %s?", product, goal),
			}
		},
	}
}

func toolCopy() *Definition {
	return &Definition{
		Name:        ToolCopy,
		Description: "Marketing copy for a tool listing",
		Required:    []string{"toolName", "category", "audience"},
		Optional:    []string{"features", "tone"},
		Outputs:     []string{"headline", "tagline", "description", "callToAction"},
		System:      copywriterSystem,
		MaxTokens:   700,
		Prompt: func(f Fields) string {
			parts := []string{
				"Write listing copy for an AI tool.",
				"Tool: " + f["toolName"],
				"Category: " + f["category"],
				"Audience: " + f["audience"],
			}
			if feats := f.Get("features", ""); feats != "" {
				parts = append(parts, "Key features: "+feats)
			}
			parts = append(parts, "Tone: "+f.Get("tone", "clear and confident"))
			return strings.Join(parts, "\n")
		},
		Fallback: func(f Fields) Fields {
			name, category, audience := f["toolName"], strings.ToLower(f["category"]), f["audience"]
			description := fmt.Sprintf("%s is a %s tool built for %s.", name, category, audience)
			if feats := f.Get("features", ""); feats != "" {
				description += " Highlights: " + feats + "."
			}
			return Fields{
				"headline":     fmt.Sprintf("%s: %s for %s", name, titleCase(category), audience),
				"tagline":      fmt.Sprintf("Get more done with %s.", name),
				"description":  description,
				"callToAction": fmt.Sprintf("Try %s today", name),
			}
		},
	}
}

func seoResearch() *Definition {
	return &Definition{
		Name:        SEOResearch,
		Description: "Search intent and subtopics for a keyword",
		Required:    []string{"keyword"},
		Optional:    []string{"audience"},
		Outputs:     []string{"searchIntent", "subtopics", "relatedCategories"},
		System:      "You are an SEO strategist for an AI tools directory.",
		MaxTokens:   600,
		Prompt: func(f Fields) string {
			return strings.Join([]string{
				"Research the search keyword: " + f["keyword"],
				"Audience: " + f.Get("audience", "people evaluating AI tools"),
				`"searchIntent" is one of informational, commercial, transactional or navigational.`,
				`"subtopics" is a list of 4 to 6 section topics a page for this keyword must cover.`,
				`"relatedCategories" is a list of 1 to 3 AI tool categories relevant to the keyword.`,
			}, "\n")
		},
		Fallback: func(f Fields) Fields {
			kw := f["keyword"]
			return Fields{
				"searchIntent": guessIntent(kw),
				"subtopics": strings.Join([]string{
					"What is " + kw,
					"Key features to look for",
					"Top " + kw + " options",
					"Pricing and free plans",
					"How to choose the right tool",
				}, "\n"),
				"relatedCategories": titleCase(kw),
			}
		},
	}
}

func guessIntent(keyword string) string {
	kw := " " + strings.ToLower(keyword) + " "
	switch {
	case containsAny(kw, " vs ", " alternative", " best ", " top ", " review"):
		return "commercial"
	case containsAny(kw, " pricing", " buy ", " free ", " discount", " coupon"):
		return "transactional"
	case containsAny(kw, " login", " download", " app "):
		return "navigational"
	default:
		return "informational"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func seoPage() *Definition {
	return &Definition{
		Name:        SEOPage,
		Description: "Structured SEO landing page",
		Required:    []string{"keyword", "searchIntent", "subtopics"},
		Optional:    []string{"audience"},
		Outputs:     []string{"title", "metaDescription", "intro", "sections", "faq"},
		System:      "You are an SEO content writer for an AI tools directory. Write accurate, skimmable pages. Never invent prices or statistics.",
		MaxTokens:   2500,
		Prompt: func(f Fields) string {
			return strings.Join([]string{
				"Write a landing page for the keyword: " + f["keyword"],
				"Search intent: " + f["searchIntent"],
				"Audience: " + f.Get("audience", "people evaluating AI tools"),
				"Cover these subtopics, one section each:",
				f["subtopics"],
				`"title" is at most 60 characters and "metaDescription" at most 155 characters.`,
				`"sections" is a list of objects with "heading" and "body".`,
				`"faq" is a list of 3 objects with "question" and "answer".`,
			}, "\n")
		},
		Fallback: func(f Fields) Fields {
			kw := f["keyword"]
			title := titleCase(kw)
			subtopics := Lines(f["subtopics"])

			var sections []string
			for _, st := range subtopics {
				sections = append(sections, fmt.Sprintf("## %s\n%s matters when you compare %s. Use the directory filters to shortlist tools and check each listing for features, pricing and recent updates.", st, st, kw))
			}
			if len(sections) == 0 {
				sections = append(sections, fmt.Sprintf("## About %s\nBrowse the directory to compare %s tools side by side.", title, kw))
			}
			faq := []string{
				fmt.Sprintf("Q: What are %s tools?\nA: Software that uses AI to help with %s. Each listing explains what the tool does and who it is for.", kw, kw),
				fmt.Sprintf("Q: Are there free %s tools?\nA: Many tools offer a free plan or trial. Check the pricing section on each listing.", kw),
				fmt.Sprintf("Q: How do I pick the right %s tool?\nA: Start from your main use case, shortlist two or three tools and try them on a real task.", kw),
			}
			return Fields{
				"title":           title + ": Tools, Tips and Alternatives",
				"metaDescription": fmt.Sprintf("Compare the best %s tools. Features, pricing and how to choose, updated regularly.", kw),
				"intro":           fmt.Sprintf("Looking for %s? This guide walks through what to look for and how the leading tools compare.", kw),
				"sections":        strings.Join(sections, "\n\n"),
				"faq":             strings.Join(faq, "\n\n"),
			}
		},
	}
}

func toolDiscovery() *Definition {
	return &Definition{
		Name:        ToolDiscovery,
		Description: "Find AI tools matching a query",
		Required:    []string{"query"},
		Outputs:     []string{"tools"},
		System:      "You are a researcher curating an AI tools directory. Only list real, currently available products with their official websites.",
		MaxTokens:   1200,
		Prompt: func(f Fields) string {
			return strings.Join([]string{
				"List up to 10 AI tools for: " + f["query"],
				`"tools" is a list of strings, each formatted as "Name | https://official-site | one sentence description".`,
			}, "\n")
		},
		Fallback: func(f Fields) Fields {
			q := f["query"]
			return Fields{
				"tools": fmt.Sprintf("Directory search | /search?q=%s | Browse listed tools matching %q.", url.QueryEscape(q), q),
			}
		},
	}
}

func promptDiscovery() *Definition {
	return &Definition{
		Name:        PromptDiscovery,
		Description: "Find reusable prompts for a topic",
		Required:    []string{"query"},
		Outputs:     []string{"prompts"},
		System:      "You are a prompt engineer curating a library of reusable prompts.",
		MaxTokens:   1500,
		Prompt: func(f Fields) string {
			return strings.Join([]string{
				"Write 5 reusable prompts for: " + f["query"],
				`"prompts" is a list of strings, each formatted as "Title | category | full prompt text" on a single line.`,
			}, "\n")
		},
		Fallback: func(f Fields) Fields {
			q := f["query"]
			return Fields{
				"prompts": fmt.Sprintf("Plan with %s | planning | Act as an expert in %s. Ask me three clarifying questions, then give me a step-by-step plan.", q, q),
			}
		},
	}
}

func newsSummary() *Definition {
	return &Definition{
		Name:        NewsSummary,
		Description: "Summarise a news article",
		Required:    []string{"headline", "text"},
		Optional:    []string{"source"},
		Outputs:     []string{"summary", "takeaway"},
		System:      "You summarise AI industry news for busy readers. Stay factual and neutral.",
		MaxTokens:   500,
		Prompt: func(f Fields) string {
			return strings.Join([]string{
				"Headline: " + f["headline"],
				"Source: " + f.Get("source", "unknown"),
				"Article:",
				truncate(f["text"], 6000),
				`"summary" is 2 or 3 sentences. "takeaway" is one sentence on why it matters to people who use AI tools.`,
			}, "\n")
		},
		Fallback: func(f Fields) Fields {
			summary := FirstSentences(f["text"], 2)
			return Fields{
				"summary":  truncate(summary, 600),
				"takeaway": fmt.Sprintf("Worth a read if you follow %s.", f.Get("source", "AI tools news")),
			}
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
