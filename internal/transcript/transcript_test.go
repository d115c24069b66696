package transcript

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://vimeo.com/12345", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := VideoID(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("VideoID(%q) = %q, want error", tt.url, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("VideoID(%q) = %q, %v, want %q", tt.url, got, err, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	segs := []domain.TranscriptSegment{{Timestamp: "0:00", Text: "hello"}, {Timestamp: "0:04", Text: "world"}}
	if got, want := Format(segs, true), "[0:00] hello\n[0:04] world"; got != want {
		t.Fatalf("Format(timestamps) = %q, want %q", got, want)
	}
	if got, want := Format(segs, false), "hello world"; got != want {
		t.Fatalf("Format(plain) = %q, want %q", got, want)
	}
	if got := Format(nil, true); got != "" {
		t.Fatalf("Format(nil) = %q", got)
	}
}

func TestTitleFromHTML(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{"<html><head><title>Go Concurrency Patterns - YouTube</title></head></html>", "Go Concurrency Patterns"},
		{`<html><head><meta property="og:title" content="Gophers"></head></html>`, "Gophers"},
		{"<html></html>", ""},
	}
	for _, tt := range tests {
		if got := TitleFromHTML(tt.html); got != tt.want {
			t.Errorf("TitleFromHTML = %q, want %q", got, tt.want)
		}
	}
}

func TestChatRequestKeepsLastFiveTurns(t *testing.T) {
	var history []domain.ChatTurn
	for i := 0; i < 8; i++ {
		history = append(history, domain.ChatTurn{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}
	tr := domain.Transcript{Segments: []domain.TranscriptSegment{{Text: "talk"}}}

	req := ChatRequest(tr, history, "final?")
	if req.Model != ChatModel || req.MaxTokens != 500 || *req.Temperature != 0.7 {
		t.Fatalf("request params = %+v", req)
	}
	var roles []string
	for _, m := range req.Messages {
		roles = append(roles, m.Role)
	}
	wantRoles := []string{"system", "user", "assistant", "user", "assistant", "user", "assistant", "user", "assistant", "user", "assistant", "user"}
	if diff := cmp.Diff(wantRoles, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
	if req.Messages[1].Content != "q3" {
		t.Fatalf("first replayed question = %v, want q3", req.Messages[1].Content)
	}
	if last := req.Messages[len(req.Messages)-1]; last.Content != "final?" || last.Role != openai.RoleUser {
		t.Fatalf("last message = %+v", last)
	}
}
