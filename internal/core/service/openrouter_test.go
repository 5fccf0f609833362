package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-planner/internal/core/ai/provider"
	"recipe-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, stream string) ([]string, error) {
	t.Helper()
	var got []string
	err := ScanSSE(strings.NewReader(stream), func(delta string) error {
		got = append(got, delta)
		return nil
	})
	return got, err
}

func TestScanSSE(t *testing.T) {
	stream := ": OPENROUTER PROCESSING\n\n" +
		`data: {"choices":[{"delta":{"content":"{\"ingr"}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"role":"assistant","content":""}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"content":"edients\":[]}"}}]}` + "\n\n" +
		"data: [DONE]\n\n" +
		`data: {"choices":[{"delta":{"content":"ignored"}}]}` + "\n"

	got, err := collect(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"ingr`, `edients":[]}`}, got)
}

func TestScanSSEErrors(t *testing.T) {
	_, err := collect(t, `data: {"error":{"message":"rate limited","code":429}}`+"\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	_, err = collect(t, "data: {not json\n")
	assert.ErrorContains(t, err, "malformed stream chunk")

	stop := errors.New("stop")
	err = ScanSSE(strings.NewReader(`data: {"choices":[{"delta":{"content":"x"}}]}`+"\n"), func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterService(&config.OpenRouterConfig{
		Enabled:   true,
		APIKey:    "sk-test",
		BaseURL:   srv.URL,
		Model:     "test/model",
		MaxTokens: 500,
		Timeout:   5 * time.Second,
	})
}

func TestOpenRouterGenerate(t *testing.T) {
	var body map[string]interface{}
	s := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","choices":[{"message":{"content":"{\"ok\":true}"}}],"usage":{"total_tokens":12}}`)
	})

	resp, err := s.Generate(context.Background(), provider.UserPrompt("hi", 0))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, 12, resp.Usage.TotalTokens)

	assert.Equal(t, "test/model", body["model"])
	assert.Equal(t, float64(500), body["max_tokens"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])
}

func TestOpenRouterGenerateErrorStatus(t *testing.T) {
	s := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	})

	_, err := s.Generate(context.Background(), provider.UserPrompt("hi", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenRouterStream(t *testing.T) {
	s := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"a"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"b"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var sb strings.Builder
	err := s.Stream(context.Background(), provider.UserPrompt("hi", 0), func(d string) error {
		sb.WriteString(d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", sb.String())
}

func TestOpenRouterStreamErrorStatus(t *testing.T) {
	s := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	})

	err := s.Stream(context.Background(), provider.UserPrompt("hi", 0), func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}
