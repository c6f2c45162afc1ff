package analysis

import (
	"context"
	"strings"

	"voicescribe/internal/app/model"
)

// Result is the structured analysis of one transcript
type Result = model.Analysis

// Stage reports how far an analysis has got
type Stage struct {
	Name    string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Stage names in the order they are reported
const (
	StagePreparing = "preparing"
	StageAnalyzing = "analyzing"
	StageParsing   = "parsing"
	StageSaving    = "saving"
	StageDone      = "done"
)

// Analyzer asks an LLM about a transcript
type Analyzer interface {
	Analyze(ctx context.Context, transcript string, onStage func(Stage)) (*Result, error)
	Ask(ctx context.Context, transcript, question string) (string, error)
	Name() string
}

func report(onStage func(Stage), name string, percent int, message string) {
	if onStage != nil {
		onStage(Stage{Name: name, Percent: percent, Message: message})
	}
}

// TranscriptText renders a completed job as the text sent to the LLM:
// one "Speaker: text" line per segment, or the plain transcript when there
// are no segments
func TranscriptText(job *model.Job) string {
	if len(job.Segments) == 0 {
		if job.TranscriptText == nil {
			return ""
		}
		return *job.TranscriptText
	}
	var b strings.Builder
	for _, seg := range job.Segments {
		b.WriteString("[")
		b.WriteString(seg.StartTime)
		b.WriteString("] ")
		b.WriteString(seg.Speaker)
		b.WriteString(": ")
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}
