package curation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/curator/internal/curation"
)

func TestHubCatalog(t *testing.T) {
	t.Parallel()

	catalog := curation.NewHubCatalog(map[string][]string{
		"World":  {"https://a.example.com/world", "https://A.example.com/world/", "ftp://bad"},
		"sports": {"https://s.example.com/"},
		"empty":  {"not-a-url"},
	}, nil)

	assert.Equal(t, []string{"https://a.example.com/world"}, catalog.For("world"))
	assert.Equal(t, []string{"https://s.example.com/"}, catalog.For(" Sports "))
	assert.Equal(t, curation.DefaultHubPair, catalog.For("empty"))
	assert.Equal(t, curation.DefaultHubPair, catalog.For("unknown"))
	assert.Equal(t, []string{"sports", "world"}, catalog.Categories())
}

func TestLoadHubFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hubs.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  science:
    - https://science.example.com/latest
  world:
    - https://world.example.com/
`), 0o600))

	hubs, err := curation.LoadHubFile(path)
	require.NoError(t, err)

	merged := curation.MergeHubs(map[string][]string{
		"World": {"https://old.example.com/"},
		"tech":  {"https://tech.example.com/"},
	}, hubs)

	assert.Equal(t, []string{"https://world.example.com/"}, merged["world"])
	assert.Equal(t, []string{"https://science.example.com/latest"}, merged["science"])
	assert.Equal(t, []string{"https://tech.example.com/"}, merged["tech"])
}

func TestLoadHubFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := curation.LoadHubFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [unterminated"), 0o600))
	_, err = curation.LoadHubFile(path)
	require.Error(t, err)
}

func TestFileGuidelines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world-news.md"), []byte("  Lead with facts.\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.md"), []byte("\n"), 0o600))

	g := curation.FileGuidelines{Dir: dir}

	text, ok := g.Guideline("World News")
	require.True(t, ok)
	assert.Equal(t, "Lead with facts.", text)

	_, ok = g.Guideline("blank")
	assert.False(t, ok)

	_, ok = g.Guideline("../world-news")
	assert.True(t, ok, "path separators and dots are stripped")

	_, ok = g.Guideline("../../etc/passwd")
	assert.False(t, ok)

	_, ok = curation.FileGuidelines{}.Guideline("world-news")
	assert.False(t, ok)
}
