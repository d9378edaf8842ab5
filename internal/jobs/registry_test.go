package jobs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryItemsPrecedence(t *testing.T) {
	job := &stubJob{name: SEOPages, defaults: []string{"default kw"}}

	r := NewRegistry(Seeds{SEOPages: {"seed kw", "Seed KW", " "}}, job)

	items, err := r.Items(SEOPages, []string{" explicit ", "", "explicit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit"}, items)

	items, err = r.Items(SEOPages, []string{"  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"seed kw"}, items)

	items, err = NewRegistry(nil, job).Items(SEOPages, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"default kw"}, items)

	_, err = r.Items("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seo-pages:\n  - ai writing tools\n  - ai image generators\ndiscover-tools:\n  - ai note taking\n"), 0o600))

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ai writing tools", "ai image generators"}, seeds[SEOPages])
	assert.Equal(t, []string{"ai note taking"}, seeds[DiscoverTools])

	seeds, err = LoadSeeds(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, seeds)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("seo-pages: {nested: [1"), 0o600))
	_, err = LoadSeeds(bad)
	assert.Error(t, err)
}
