package analysis

import "strings"

const analysisSystemPrompt = "You analyse meeting and interview transcripts. " +
	"Return ONLY a JSON object with these keys: " +
	`"summary" (string, 3 to 6 sentences), ` +
	`"key_points" (array of short strings), ` +
	`"action_items" (array of short imperative strings, empty if none), ` +
	`"speaker_insights" (array of objects with "speaker" and "insight"). ` +
	"Write in the language of the transcript. Never output null."

const askSystemPrompt = "You answer questions about a transcript. " +
	"Use only what the transcript says. If the answer is not in it, say so. " +
	"Answer in the language of the question."

// maxTranscriptRunes bounds the transcript sent in one request
const maxTranscriptRunes = 200_000

func truncate(transcript string) string {
	r := []rune(transcript)
	if len(r) <= maxTranscriptRunes {
		return transcript
	}
	return string(r[:maxTranscriptRunes]) + "\n[transcript truncated]"
}

func analysisUserPrompt(transcript string) string {
	return "Transcript:\n" + truncate(strings.TrimSpace(transcript))
}

func askUserPrompt(transcript, question string) string {
	return "Transcript:\n" + truncate(strings.TrimSpace(transcript)) + "\n\nQuestion: " + strings.TrimSpace(question)
}
