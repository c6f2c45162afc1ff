package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"voicescribe/internal/app/model"
)

// Utterance is one speaker turn as reported by a provider. Offsets are in
// milliseconds.
type Utterance struct {
	Speaker    string
	Text       string
	Start      int64
	End        int64
	Confidence float64
}

// slack allowed past the reported audio duration before a timestamp is
// considered corrupt
const durationSlackMs = 5000

var palette = []string{"#2563eb", "#dc2626", "#059669", "#7c2d12", "#4338ca", "#be185d"}

// SpeakerColor returns the display colour for the n-th distinct speaker
func SpeakerColor(n int) string {
	return palette[n%len(palette)]
}

// SpeakerLabel returns "Speaker A", "Speaker B" and so on
func SpeakerLabel(n int) string {
	return "Speaker " + speakerID(n)
}

func speakerID(n int) string {
	if n < 26 {
		return string(rune('A' + n))
	}
	return fmt.Sprintf("%d", n+1)
}

// FormatTimestamp renders a millisecond offset as MM:SS
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return "00:00"
	}
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Result is the outcome of cleaning a provider's utterances
type Result struct {
	Segments []model.Segment
	Speakers []model.Speaker
	Skipped  int
}

// BuildSegments validates utterances and maps provider speaker labels to
// stable display speakers in order of first appearance. Utterances with
// fewer than two characters of text, negative or inverted offsets, or offsets
// past the audio duration are dropped.
func BuildSegments(utterances []Utterance, durationSeconds float64) Result {
	maxValid := int64(durationSeconds*1000) + durationSlackMs
	checkDuration := durationSeconds > 0

	res := Result{Segments: make([]model.Segment, 0, len(utterances)), Speakers: make([]model.Speaker, 0)}
	index := make(map[string]int)

	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if utf8.RuneCountInString(text) < 2 {
			res.Skipped++
			continue
		}
		if u.Start < 0 || u.End < 0 || u.Start >= u.End {
			res.Skipped++
			continue
		}
		if checkDuration && (u.Start > maxValid || u.End > maxValid) {
			res.Skipped++
			continue
		}

		label := strings.TrimSpace(u.Speaker)
		if label == "" || label == "null" {
			label = "UNKNOWN"
		}
		n, ok := index[label]
		if !ok {
			n = len(index)
			index[label] = n
			res.Speakers = append(res.Speakers, model.Speaker{
				ID:    speakerID(n),
				Label: SpeakerLabel(n),
				Color: SpeakerColor(n),
			})
		}

		res.Segments = append(res.Segments, model.Segment{
			Speaker:    SpeakerLabel(n),
			Text:       text,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
			StartTime:  FormatTimestamp(u.Start),
			EndTime:    FormatTimestamp(u.End),
			Color:      SpeakerColor(n),
		})
	}
	return res
}

var (
	cjkPattern    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	latinPattern  = regexp.MustCompile(`\b[a-zA-Z]+\b`)
	numberPattern = regexp.MustCompile(`\b\d+\b`)
)

// WordCount counts CJK characters, latin words and numbers
func WordCount(text string) int {
	if text == "" {
		return 0
	}
	return len(cjkPattern.FindAllStringIndex(text, -1)) +
		len(latinPattern.FindAllStringIndex(text, -1)) +
		len(numberPattern.FindAllStringIndex(text, -1))
}

// MeanConfidence averages segment confidence; zero when there are no segments
func MeanConfidence(segments []model.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.Confidence
	}
	return sum / float64(len(segments))
}

// NewPayload assembles a terminal payload. When text is empty it is rebuilt
// from the segments; when confidence is not positive the segment mean is used.
func NewPayload(text string, utterances []Utterance, durationSeconds, confidence float64) *model.TranscriptPayload {
	res := BuildSegments(utterances, durationSeconds)

	text = strings.TrimSpace(text)
	if text == "" && len(res.Segments) > 0 {
		parts := make([]string, 0, len(res.Segments))
		for _, s := range res.Segments {
			parts = append(parts, s.Text)
		}
		text = strings.Join(parts, " ")
	}
	if confidence <= 0 {
		confidence = MeanConfidence(res.Segments)
	}

	return &model.TranscriptPayload{
		Text:            text,
		Segments:        res.Segments,
		Speakers:        res.Speakers,
		DurationSeconds: durationSeconds,
		WordCount:       WordCount(text),
		Confidence:      confidence,
	}
}
