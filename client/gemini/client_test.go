package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	var gotPath, gotKey string
	var gotReq GenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(GenerateResponse{
			Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "completed text"}}}, FinishReason: "STOP"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gemini-2.0-flash")
	req := NewTextRequest("complete this", &GenerationConfig{Temperature: 0.3, MaxOutputTokens: 300})

	resp, err := c.GenerateContent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "complete this", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, "completed text", resp.Text())
}

func TestGenerateContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m")
	_, err := c.GenerateContent(context.Background(), NewTextRequest("p", nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateContentAPIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateResponse{
			Error: &APIError{Code: 400, Message: "invalid argument", Status: "INVALID_ARGUMENT"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m")
	_, err := c.GenerateContent(context.Background(), NewTextRequest("p", nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_ARGUMENT")
}

func TestGenerateContentContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "k", "m")
	_, err := c.GenerateContent(ctx, NewTextRequest("p", nil))
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	empty := &GenerateResponse{}
	assert.Empty(t, empty.Text())

	noParts := &GenerateResponse{Candidates: []Candidate{{}}}
	assert.Empty(t, noParts.Text())
}
