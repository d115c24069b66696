// Package transcript reads YouTube transcripts and builds the chat prompt
// that answers questions about them.
package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([^&\s]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([^?\s]+)`),
}

// VideoID pulls the id out of a watch or short link.
func VideoID(rawURL string) (string, error) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(strings.TrimSpace(rawURL)); m != nil && m[1] != "" {
			return m[1], nil
		}
	}
	return "", &domain.InvalidInputError{Field: "video url", Value: rawURL, Reason: "expected youtube.com/watch?v=<id> or youtu.be/<id>"}
}

// WatchURL is the canonical page for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

const extractPrompt = `Open the video's transcript panel and extract the video title and every transcript segment in order.
For each segment return its timestamp exactly as displayed and its text.`

func ExtractionRequest(id string, schema map[string]any) domain.ExtractionRequest {
	return domain.ExtractionRequest{
		URLs:    []string{WatchURL(id)},
		Prompt:  extractPrompt,
		Schema:  schema,
		Session: &domain.SessionOptions{UseStealth: true, AcceptCookies: true, Adblock: true},
		WaitFor: 3000,
	}
}

// CleanTitle drops the site suffix browsers show in the tab title.
func CleanTitle(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, " - YouTube", ""))
}

// TitleFromHTML reads <title> from a scraped watch page.
func TitleFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	title := doc.Find("title").First().Text()
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	return CleanTitle(title)
}

// Format renders segments one per line as "[ts] text", or as a single
// space-joined paragraph without timestamps.
func Format(segments []domain.TranscriptSegment, withTimestamps bool) string {
	var b strings.Builder
	for _, s := range segments {
		if withTimestamps {
			fmt.Fprintf(&b, "[%s] %s\n", s.Timestamp, s.Text)
		} else {
			b.WriteString(s.Text)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// HistoryTurns is how many previous exchanges are replayed to the model.
const HistoryTurns = 5

const (
	ChatModel       = "gpt-3.5-turbo"
	ChatTemperature = 0.7
	ChatMaxTokens   = 500
)

// ChatRequest builds the completion request for question, replaying the most
// recent turns of history.
func ChatRequest(t domain.Transcript, history []domain.ChatTurn, question string) openai.ChatRequest {
	system := "You are an AI assistant that helps users understand the content of a YouTube video. " +
		"Here is the transcript of the video:\n\n" + Format(t.Segments, false) + "\n\n" +
		"Answer questions based only on the content of this transcript. If you don't know the answer, " +
		"preface your response by saying that you are inferring the answer based on your training data, and not the transcript."

	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	msgs := make([]openai.Message, 0, 2+2*len(history))
	msgs = append(msgs, openai.Text(openai.RoleSystem, system))
	for _, turn := range history {
		msgs = append(msgs, openai.Text(openai.RoleUser, turn.Question), openai.Text(openai.RoleAssistant, turn.Answer))
	}
	msgs = append(msgs, openai.Text(openai.RoleUser, question))
	return openai.ChatRequest{
		Model:       ChatModel,
		Messages:    msgs,
		Temperature: openai.Temperature(ChatTemperature),
		MaxTokens:   ChatMaxTokens,
	}
}
