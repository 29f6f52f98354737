package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeminiRank(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(genai.Text("1. Jane Doe"), genai.Text("\n2. Ian McKay"))}
	r := &GeminiRanker{model: gen}

	out, err := r.Rank(context.Background(), "spark", "name: Jane Doe\nprofile_text: spark\n")
	require.NoError(t, err)
	assert.Equal(t, "1. Jane Doe\n2. Ian McKay", out)

	require.Len(t, gen.parts, 1)
	prompt, ok := gen.parts[0].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(prompt), "spark")
	assert.NoError(t, r.Close())
}

func TestGeminiRankErrors(t *testing.T) {
	cases := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "call fails", gen: &fakeGenerator{err: errors.New("boom")}},
		{name: "no candidates", gen: &fakeGenerator{resp: &genai.GenerateContentResponse{}}},
		{name: "no content", gen: &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}}},
		{name: "no text parts", gen: &fakeGenerator{resp: textResponse(genai.Blob{MIMEType: "image/png"})}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := (&GeminiRanker{model: tc.gen}).Rank(context.Background(), "q", "c")
			assert.Error(t, err)
		})
	}
}

func TestNewGeminiRankerRequiresKey(t *testing.T) {
	_, err := NewGeminiRanker(context.Background(), "", "gemini-2.5-flash")
	assert.Error(t, err)
}
