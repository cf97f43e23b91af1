package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/tmplconv/internal/ai"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

func testConfig(baseURL string) *ai.Config {
	cfg := ai.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = "sk-test-credential-0123456789"
	cfg.Model = "test-model"
	return cfg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestComplete_Success(t *testing.T) {
	var got ai.ChatRequest
	var auth, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "{{LoadedData.Time}}"}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider("openai", testConfig(srv.URL+"/v1/"))
	require.NoError(t, err)

	content, err := p.Complete(context.Background(), ai.ChatRequest{
		Messages:    []ai.Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "{{LoadedData.Time}}", content)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer sk-test-credential-0123456789", auth)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "boom"}}, 500},
		{"unauthorized", http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "bad key"}}, 401},
		{"no choices", http.StatusOK, map[string]any{"choices": []any{}}, 200},
		{"error body with 200", http.StatusOK, map[string]any{"error": map[string]string{"message": "quota"}}, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			p, err := NewProvider("openai", testConfig(srv.URL))
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), ai.ChatRequest{})
			require.Error(t, err)
			assert.ErrorIs(t, err, converrors.ErrGenerativeCall)

			ge, ok := converrors.AsGenerativeError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, ge.Status)
			assert.NotContains(t, err.Error(), "sk-test-credential")
			assert.Equal(t, int32(1), calls.Load(), "no retry")
		})
	}
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	p, err := NewProvider("openai", cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Complete(context.Background(), ai.ChatRequest{})
	require.Error(t, err)
	assert.True(t, converrors.IsGenerativeFailure(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewProvider_Validation(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.APIKey = ""
	_, err := NewProvider("openai", cfg)
	assert.True(t, converrors.IsMissingCredential(err))

	cfg = testConfig("http://localhost")
	cfg.Model = ""
	_, err = NewProvider("openai", cfg)
	assert.True(t, converrors.IsInvalid(err))
}

func TestRegisteredProviders(t *testing.T) {
	names := ai.Providers()
	assert.Contains(t, names, "openai")
	assert.Contains(t, names, "openai_compat")
	assert.Contains(t, names, "ollama")

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		cfg.Provider = "ollama"
		cfg.Model = "llama3"
		p, err := ai.NewProvider(cfg)
		require.NoError(t, err)
		assert.Equal(t, "ollama", p.Name())

		op := p.(*Provider)
		assert.Equal(t, ollamaBaseURL, op.config.BaseURL)
		assert.Empty(t, cfg.APIKey, "caller config is not mutated")
	})

	t.Run("ollama sends no authorization", func(t *testing.T) {
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"content": "{{x}}"}}},
			})
		}))
		defer srv.Close()

		cfg := &ai.Config{Provider: "ollama", BaseURL: srv.URL, Model: "llama3"}
		p, err := ai.NewProvider(cfg)
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), ai.ChatRequest{})
		require.NoError(t, err)
		assert.Empty(t, auth)
	})

	t.Run("openai without key", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		_, err := ai.NewProvider(cfg)
		assert.True(t, converrors.IsMissingCredential(err))
	})
}
