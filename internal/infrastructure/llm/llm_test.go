package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

func TestChatGPTClientComplete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "configured prompt", req.Messages[0].Content)
			assert.Equal(t, "hello", req.Messages[1].Content)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := NewChatGPTClient(config.LLMConfig{
		Endpoint:     srv.URL,
		Model:        "gpt-test",
		APIKey:       "sk-test",
		SystemPrompt: "configured prompt",
		Timeout:      time.Second,
	})
	got, err := c.Complete(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestChatGPTClientFailures(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.LLMConfig{Endpoint: "http://localhost", Model: "m"}).Complete(context.Background(), "", "x")
	assert.Equal(t, errors.ClassConfigurationAbsent, errors.Classify(err))

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()
	_, err = NewChatGPTClient(config.LLMConfig{Endpoint: empty.URL, Model: "m", APIKey: "k"}).Complete(context.Background(), "", "x")
	assert.Equal(t, errors.ClassTransient, errors.Classify(err))

	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer denied.Close()
	_, err = NewChatGPTClient(config.LLMConfig{Endpoint: denied.URL, Model: "m", APIKey: "k"}).Complete(context.Background(), "", "x")
	assert.Equal(t, errors.ClassPermission, errors.Classify(err))
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (f *fakeGenerator) Complete(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, system+"\n"+prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func TestSummarizer(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{
		"The applicant proposes a workforce program with a clear budget and timeline.",
		"Clause one.\n\nClause two.\r\n\r\nClause three.\n\n\n\nClause four.\n\nClause five.\n\nClause six.",
	}}
	s := NewSummarizer(gen)

	got, err := s.Summarize(context.Background(), "proposal body", domain.DocumentMetadata{FileName: "p.txt"})
	require.NoError(t, err)

	assert.Equal(t, Method, got.Method)
	assert.Equal(t, []string{"Clause one.", "Clause two.", "Clause three.", "Clause four.", "Clause five."}, got.KeyClauses)
	assert.Equal(t, []string{"budget", "timeline", "workforce"}, got.KeyTopics)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "p.txt")
	assert.Contains(t, gen.prompts[1], "proposal body")
}

func TestSummarizerPropagatesClass(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&fakeGenerator{err: errors.Transient(errors.New("429"))})
	_, err := s.Summarize(context.Background(), "x", domain.DocumentMetadata{})
	assert.Equal(t, errors.ClassTransient, errors.Classify(err))

	_, err = NewSummarizer(nil).Summarize(context.Background(), "x", domain.DocumentMetadata{})
	assert.Equal(t, errors.ClassConfigurationAbsent, errors.Classify(err))
}

func TestAnalyzerPromptCarriesContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{"Overall Compliance Status: Compliant\nConfidence Score: 88"}}
	a := NewAnalyzer(gen)

	out, err := a.Analyze(context.Background(), "We will hire locally.", ports.AnalysisContext{
		FileName: "proposal.txt",
		Metadata: domain.DocumentMetadata{Applicant: "Northside Alliance"},
		Summary:  domain.SummaryResult{ExecutiveSummary: "Local hiring program.", KeyClauses: []string{"hire locally"}},
		Knowledge: []domain.KnowledgeDocument{{
			Number:       "14173",
			Title:        "Ending Illegal Discrimination",
			Requirements: []string{"Recipients must certify compliance."},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Confidence Score: 88")

	prompt := gen.prompts[0]
	assert.True(t, strings.HasPrefix(prompt, analystSystem))
	for _, want := range []string{"proposal.txt", "Northside Alliance", "Local hiring program.", "- hire locally", "Executive Order 14173 - Ending Illegal Discrimination", "* Recipients must certify compliance.", "We will hire locally."} {
		assert.Contains(t, prompt, want)
	}
}

func TestAnalyzerWithoutKnowledge(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{"ok"}}
	_, err := NewAnalyzer(gen).Analyze(context.Background(), "text", ports.AnalysisContext{})
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "No executive orders were retrieved")
}

func TestClip(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", maxPromptChars+10)
	assert.Len(t, []rune(clip(long)), maxPromptChars)
	assert.Equal(t, "short", clip("short"))
}
