// Package article prepares web articles for speech synthesis.
package article

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const extractPrompt = "Extract the article title, author, abstract and the full article text. Do not summarise the text."

// ParseURL accepts absolute http(s) URLs only.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &domain.InvalidInputError{Field: "url", Value: raw, Reason: "expected an http(s) URL"}
	}
	return u, nil
}

// ExtractionRequest reads the article through a stealth session that accepts
// cookie banners.
func ExtractionRequest(pageURL string, schema map[string]any) domain.ExtractionRequest {
	return domain.ExtractionRequest{
		URLs:   []string{pageURL},
		Prompt: extractPrompt,
		Schema: schema,
		Session: &domain.SessionOptions{
			UseStealth:    true,
			AcceptCookies: true,
		},
	}
}

// ScrapeRequest fetches the raw page for the readability fallback.
func ScrapeRequest(pageURL string) domain.ScrapeRequest {
	return domain.ScrapeRequest{
		URL:     pageURL,
		Formats: []domain.ScrapeFormat{domain.FormatHTML},
		Session: &domain.SessionOptions{UseStealth: true, AcceptCookies: true},
	}
}

// FromHTML runs readability over a scraped page.
func FromHTML(pageURL, html string) (domain.Article, error) {
	u, err := ParseURL(pageURL)
	if err != nil {
		return domain.Article{}, err
	}
	parser := readability.NewParser()
	parsed, err := parser.Parse(strings.NewReader(html), u)
	if err != nil {
		return domain.Article{}, fmt.Errorf("readability: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(parsed.Content))
	if err != nil {
		return domain.Article{}, fmt.Errorf("parse article body: %w", err)
	}
	var paras []string
	doc.Find("h1,h2,h3,h4,p,li,blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			paras = append(paras, t)
		}
	})
	a := domain.Article{
		Title:       strings.TrimSpace(parsed.Title),
		FullContent: strings.Join(paras, "\n"),
		Author:      strings.TrimSpace(parsed.Byline),
		Abstract:    strings.TrimSpace(parsed.Excerpt),
	}
	if a.Title == "" {
		return domain.Article{}, &domain.SchemaViolationError{Field: "title", Reason: "is missing"}
	}
	if a.FullContent == "" {
		return domain.Article{}, &domain.SchemaViolationError{Field: "fullContent", Reason: "is empty"}
	}
	return a, nil
}

// SpeechText is "<title>\nby <author>\n<content>", without the author line
// when the author is unknown.
func SpeechText(a domain.Article) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Title))
	b.WriteString("\n")
	if author := strings.TrimSpace(a.Author); author != "" {
		b.WriteString("by ")
		b.WriteString(author)
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(a.FullContent))
	return b.String()
}
