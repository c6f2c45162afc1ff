package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeminiAnalyzer_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"summary":"Hiring plan.","key_points":["two engineers"]}`}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	a, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL + "/"}, zap.NewNop())
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), "Speaker A: we hire two engineers", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hiring plan.", result.Summary)
	assert.Equal(t, []string{"two engineers"}, result.KeyPoints)
	assert.Empty(t, result.ActionItems)
}

func TestNewGeminiAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), GeminiConfig{}, zap.NewNop())
	assert.Error(t, err)
}
