package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voicescribe/internal/app/model"
)

var resultSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary":      map[string]any{"type": "string"},
		"key_points":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"action_items": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"speaker_insights": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"speaker": map[string]any{"type": "string"},
					"insight": map[string]any{"type": "string"},
				},
				"required": []string{"speaker", "insight"},
			},
		},
	},
	"required": []string{"summary"},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(resultSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("analysis.json")
	})
	return compiled, compileErr
}

// stripFences removes a Markdown code fence wrapped around a JSON reply
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Decode turns an LLM reply into a Result. The shape check only decides
// whether the reply can be decoded; a reply that does not fit is kept whole
// as the summary. The bool is false in that case.
func Decode(raw string) (*Result, bool) {
	content := stripFences(raw)

	sch, err := schema()
	if err != nil {
		return fallback(raw), false
	}
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fallback(raw), false
	}
	if err := sch.Validate(doc); err != nil {
		return fallback(raw), false
	}

	var out Result
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return fallback(raw), false
	}
	normalize(&out)
	return &out, true
}

func fallback(raw string) *Result {
	out := &Result{Summary: strings.TrimSpace(raw)}
	normalize(out)
	return out
}

func normalize(r *Result) {
	if r.KeyPoints == nil {
		r.KeyPoints = []string{}
	}
	if r.ActionItems == nil {
		r.ActionItems = []string{}
	}
	if r.SpeakerInsights == nil {
		r.SpeakerInsights = []model.SpeakerInsight{}
	}
}
