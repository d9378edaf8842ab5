// Package news builds the news digest from article URLs.
package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxArticleBytes = 2 << 20
	minParagraphLen = 40
	maxArticleText  = 8000
)

var errNoArticleText = errors.New("no article text found")

// Article is the readable part of a fetched page.
type Article struct {
	URL      string
	Headline string
	Source   string
	Text     string
}

// Fetcher downloads and extracts articles.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{client: client, userAgent: "toolsdir-news/1.0"}
}

// Fetch downloads pageURL and extracts its headline and body text.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid article url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", u.Host, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return Extract(doc, u)
}

// Extract reads the headline, source name and paragraphs from doc.
func Extract(doc *goquery.Document, u *url.URL) (*Article, error) {
	a := &Article{
		URL:      u.String(),
		Headline: firstNonEmpty(meta(doc, "og:title"), text(doc.Find("h1").First()), text(doc.Find("title").First())),
		Source:   firstNonEmpty(meta(doc, "og:site_name"), strings.TrimPrefix(u.Hostname(), "www.")),
	}

	scope := doc.Find("article").First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	var paragraphs []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := text(p); len(t) >= minParagraphLen {
			paragraphs = append(paragraphs, t)
		}
	})
	a.Text = strings.Join(paragraphs, "\n\n")
	if r := []rune(a.Text); len(r) > maxArticleText {
		a.Text = string(r[:maxArticleText])
	}

	if a.Text == "" {
		return nil, fmt.Errorf("%s: %w", a.URL, errNoArticleText)
	}
	if a.Headline == "" {
		a.Headline = a.URL
	}
	return a, nil
}

func meta(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
