// Package changelog turns a GitHub comparison into markdown changelogs.
package changelog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

var repoURLPattern = regexp.MustCompile(`^https?://github\.com/[\w\-]+/[\w\-]+(\.git)?$`)

// Range identifies the two refs being compared in a repository.
type Range struct {
	RepoURL string `json:"repoUrl"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Validate rejects anything that is not a plain GitHub repository URL or a
// range with blank refs.
func (r Range) Validate() error {
	if !repoURLPattern.MatchString(strings.TrimSpace(r.RepoURL)) {
		return &domain.InvalidInputError{Field: "repository url", Value: r.RepoURL, Reason: "expected https://github.com/<owner>/<repo>"}
	}
	if strings.TrimSpace(r.Start) == "" {
		return &domain.InvalidInputError{Field: "start ref", Reason: "is empty"}
	}
	if strings.TrimSpace(r.End) == "" {
		return &domain.InvalidInputError{Field: "end ref", Reason: "is empty"}
	}
	return nil
}

func (r Range) base() string {
	return strings.TrimSuffix(strings.TrimSpace(r.RepoURL), ".git")
}

// CompareURL is <repo>/compare/<start>...<end>.
func (r Range) CompareURL() string {
	return fmt.Sprintf("%s/compare/%s...%s", r.base(), strings.TrimSpace(r.Start), strings.TrimSpace(r.End))
}

// RepoName is the last path segment of the repository URL.
func (r Range) RepoName() string {
	b := r.base()
	return b[strings.LastIndex(b, "/")+1:]
}

// FileName is the download name for a rendered changelog of the given kind.
func (r Range) FileName(kind string) string {
	return fmt.Sprintf("%s_%s_changelog_%s_to_%s.md", r.RepoName(), kind, r.Start, r.End)
}

const extractPrompt = `Extract the following information from this GitHub comparison page:
1. The total number of commits in this comparison
2. The total number of files changed
3. For each commit:
   - The main commit message (title)
   - The commit description (body, if any)
   - The name of the committer
   - Whether the commit is verified (true/false)
4. For each file changed:
   - The file path
   - The number of additions (green lines)
   - The number of deletions (red lines)
   - A summary of the actual changes
   - Whether the commit change is visible in the UI (true/false)`

// ExtractionRequest builds the job that reads the comparison page.
func (r Range) ExtractionRequest(schema map[string]any) domain.ExtractionRequest {
	return domain.ExtractionRequest{
		URLs:   []string{r.CompareURL()},
		Prompt: extractPrompt,
		Schema: schema,
	}
}
