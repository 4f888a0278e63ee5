package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/match-sim/match-sim/sim"
)

func TestHTTP_GenerateMove(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  e2e4\n"}}]}`))
	}))
	defer server.Close()

	h := NewHTTP(HTTPConfig{BaseURL: server.URL, APIKey: "sk-test", Model: "gpt-4o-mini"})
	history := []sim.GameEvent{{Turn: 0, Actor: sim.ActorSystem, Type: "MATCH_START"}}
	out := h.GenerateMove(context.Background(), "You are white.", history)

	require.Equal(t, "e2e4", out, "completion text is trimmed")
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, "You are white.", gotReq.Messages[0].Content)
	require.Contains(t, gotReq.Messages[1].Content, "MATCH_START")
}

func TestHTTP_FailuresBecomeSentinels(t *testing.T) {
	status := http.StatusTooManyRequests
	body := `{}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	h := NewHTTP(HTTPConfig{BaseURL: server.URL})
	ctx := context.Background()

	out := h.GenerateMove(ctx, "", nil)
	require.True(t, IsError(out))
	require.Contains(t, out, "status 429")

	status, body = http.StatusOK, `not json`
	out = h.GenerateMove(ctx, "", nil)
	require.True(t, IsError(out))
	require.Contains(t, out, "decode response")

	status, body = http.StatusOK, `{"choices":[]}`
	out = h.GenerateMove(ctx, "", nil)
	require.True(t, IsError(out))
	require.Contains(t, out, "no choices")

	// Unreachable endpoint: transport errors fold into the sentinel too.
	down := NewHTTP(HTTPConfig{BaseURL: "http://127.0.0.1:1"})
	require.True(t, IsError(down.GenerateMove(ctx, "", nil)))
}
