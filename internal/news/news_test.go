package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap/zaptest"
)

const articleHTML = `<html><head>
<title>Fallback title | Example</title>
<meta property="og:title" content="Example Labs ships a new model">
<meta property="og:site_name" content="Example News">
</head><body>
<nav><p>Subscribe to our newsletter for the latest stories every day.</p></nav>
<article>
  <h1>Example Labs ships a new model</h1>
  <p>Short.</p>
  <p>Example Labs released a new language model on Tuesday. It is faster than the previous version.</p>
  <p>The company says the model will be available to all paying customers by the end of the month.</p>
</article>
</body></html>`

type memoryNews struct {
	items map[string]*models.NewsItem
	err   error
}

func (m *memoryNews) Upsert(_ context.Context, item *models.NewsItem) error {
	if m.err != nil {
		return m.err
	}
	if m.items == nil {
		m.items = map[string]*models.NewsItem{}
	}
	m.items[item.URL] = item
	return nil
}

func fallbackAgents(t *testing.T) *agent.Orchestrator {
	t.Helper()
	reg, err := agent.DefaultRegistry()
	require.NoError(t, err)
	return agent.NewOrchestrator(reg, nil, zaptest.NewLogger(t), agent.Options{})
}

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	require.NoError(t, err)
	u, _ := url.Parse("https://www.example.com/news/model")

	a, err := Extract(doc, u)
	require.NoError(t, err)
	assert.Equal(t, "Example Labs ships a new model", a.Headline)
	assert.Equal(t, "Example News", a.Source)
	assert.True(t, strings.HasPrefix(a.Text, "Example Labs released"))
	assert.NotContains(t, a.Text, "newsletter")
	assert.NotContains(t, a.Text, "Short.")
}

func TestExtractWithoutArticleElement(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head><title>Plain page</title></head><body><p>This page has no article element but a long enough paragraph.</p></body></html>`))
	require.NoError(t, err)
	u, _ := url.Parse("https://www.blog.dev/post")

	a, err := Extract(doc, u)
	require.NoError(t, err)
	assert.Equal(t, "Plain page", a.Headline)
	assert.Equal(t, "blog.dev", a.Source)

	empty, _ := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>tiny</p></body></html>`))
	_, err = Extract(empty, u)
	assert.ErrorIs(t, err, errNoArticleText)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "toolsdir-news/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	a, err := f.Fetch(context.Background(), srv.URL+"/story")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/story", a.URL)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	_, err = f.Fetch(context.Background(), "ftp://example.com/file")
	assert.ErrorContains(t, err, "invalid article url")
}

func TestJobProcess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	store := &memoryNews{}
	job := NewJob(fallbackAgents(t), NewFetcher(srv.Client()), store, zaptest.NewLogger(t))

	out, err := job.Process(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, jobs.Generated, out.Status)
	assert.True(t, out.Researched)

	item := store.items[srv.URL+"/a"]
	require.NotNil(t, item)
	assert.Equal(t, string(agent.ProviderFallback), item.Provider)
	assert.Equal(t, "Example Labs released a new language model on Tuesday. It is faster than the previous version.", item.Summary)
	assert.Contains(t, item.Takeaway, "Example News")

	store.err = repository.ErrRelationNotFound
	out, err = job.Process(context.Background(), srv.URL+"/b")
	require.NoError(t, err)
	assert.Equal(t, jobs.Skipped, out.Status)

	store.err = errors.New("disk full")
	_, err = job.Process(context.Background(), srv.URL+"/c")
	assert.Error(t, err)

	unstored := NewJob(fallbackAgents(t), NewFetcher(srv.Client()), nil, zaptest.NewLogger(t))
	out, err = unstored.Process(context.Background(), srv.URL+"/d")
	require.NoError(t, err)
	assert.Equal(t, "storage not configured", out.Reason)

	out, err = job.Process(context.Background(), "not a url")
	assert.Error(t, err)
	assert.False(t, out.Researched)
	assert.Empty(t, job.DefaultItems())
}
