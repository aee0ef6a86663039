package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/errors"
)

const eo14151 = `Executive Order 14151. Ending Radical and Wasteful Government DEI Programs.
Each agency shall terminate all equity-related grants to the maximum extent allowed by law.
Short line. Agencies must report equity action plans within sixty days of this order.`

const eo14154 = `Executive Order 14154. Unleashing American Energy.
Agencies shall review climate programs and infrastructure spending for alignment with this order.`

func corpusDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"14151_Ending_Radical_DEI_Programs.txt": eo14151,
		"14154_Unleashing_American_Energy.txt":  eo14154,
		"notes.md":                              "ignored",
		"00000_Unrelated.txt":                   "Nothing of interest here at all.",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoadCorpus(t *testing.T) {
	t.Parallel()

	c, err := LoadCorpus(corpusDir(t), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	empty, err := LoadCorpus(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestCorpusSearchRanksByTopicMatches(t *testing.T) {
	t.Parallel()

	c, err := LoadCorpus(corpusDir(t), nil)
	require.NoError(t, err)

	got, err := c.Search(context.Background(), "", []string{"Equity", "climate", "infrastructure"}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "documents with no topic or compliance term are dropped")

	// 14154: two topics (20) + "shall" (2).
	assert.Equal(t, "14154", got[0].Number)
	assert.Equal(t, "Unleashing American Energy", got[0].Title)
	assert.Equal(t, 22.0, got[0].Relevance)
	assert.Equal(t, []string{"climate", "infrastructure"}, got[0].MatchedTopics)

	// 14151: one topic (10) + shall, must (4).
	assert.Equal(t, "14151", got[1].Number)
	assert.Equal(t, 14.0, got[1].Relevance)
	assert.Equal(t, []string{
		"Each agency shall terminate all equity-related grants to the maximum extent allowed by law.",
		"Agencies must report equity action plans within sixty days of this order.",
	}, got[1].Requirements)
	assert.Equal(t, "14151: Ending Radical DEI Programs", got[1].Name())

	top1, err := c.Search(context.Background(), "", []string{"equity", "climate", "infrastructure"}, 1)
	require.NoError(t, err)
	assert.Len(t, top1, 1)
}

func TestCorpusSearchFallsBackToQueryWords(t *testing.T) {
	t.Parallel()

	c := NewCorpus(nil)
	got, err := c.Search(context.Background(), "equity", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Search(ctx, "x", nil, 5)
	assert.Error(t, err)
}

func TestRequirementsBounded(t *testing.T) {
	t.Parallel()

	text := ""
	for i := 0; i < 8; i++ {
		text += "Recipients shall maintain documentation for every funded activity. "
	}
	assert.Len(t, Requirements(text), 5)
}

func TestRemoteIndexSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/eo/docs/search", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("api-key"))

		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a b c d e", req.Search)
		assert.Equal(t, 3, req.Top)

		_, _ = w.Write([]byte(`{"value":[{"@search.score":0.42,"id":"eo-14151","title":"Ending DEI","content":"Agencies shall terminate equity grants immediately.","eo_number":"14151"}]}`))
	}))
	defer srv.Close()

	idx := NewRemoteIndex(config.SearchConfig{Endpoint: srv.URL, APIKey: "key", Index: "eo"})
	got, err := idx.Search(context.Background(), "ignored", []string{"a", "b", "c", "d", "e", "f"}, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "14151", got[0].Number)
	assert.InDelta(t, 42.0, got[0].Relevance, 1e-9)
	assert.Len(t, got[0].Requirements, 1)
}

func TestRemoteIndexFailures(t *testing.T) {
	t.Parallel()

	_, err := NewRemoteIndex(config.SearchConfig{Index: "eo"}).Search(context.Background(), "q", nil, 5)
	assert.Equal(t, errors.ClassConfigurationAbsent, errors.Classify(err))

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err = NewRemoteIndex(config.SearchConfig{Endpoint: srv.URL, APIKey: "k", Index: "missing"}).Search(context.Background(), "q", nil, 5)
	assert.Equal(t, errors.ClassRejected, errors.Classify(err))
}
