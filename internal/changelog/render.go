package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const stampLayout = "2006-01-02 15:04:05"

// Category is a heuristic bucket for a commit message.
type Category struct {
	Title    string
	keywords []string
}

// Categories in precedence order; the first match wins and Other catches the rest.
var Categories = []Category{
	{Title: "✨ Features", keywords: []string{"feat", "feature", "add", "new"}},
	{Title: "🐛 Bug Fixes", keywords: []string{"fix", "bug", "issue", "error", "resolv"}},
	{Title: "📄 Documentation", keywords: []string{"doc", "readme", "comment"}},
	{Title: "🔨 Refactoring", keywords: []string{"refactor", "clean", "restructure"}},
	{Title: "🧪 Tests", keywords: []string{"test", "spec", "assert"}},
	{Title: "🔄 Other Changes"},
}

// Categorize returns the index into Categories for message.
func Categorize(message string) int {
	m := strings.ToLower(message)
	for i, c := range Categories {
		for _, k := range c.keywords {
			if strings.Contains(m, k) {
				return i
			}
		}
	}
	return len(Categories) - 1
}

func header(b *strings.Builder, r Range) {
	fmt.Fprintf(b, "# %s Changelog\n", r.RepoName())
}

func summary(b *strings.Builder, cmp domain.GitComparison) {
	b.WriteString("## Summary\n")
	fmt.Fprintf(b, "* Total commits: %d\n", cmp.NumCommits)
	fmt.Fprintf(b, "* Files changed: %d\n\n", cmp.NumFilesChanged)
}

// Standard lists the summary, every commit and every file change.
func Standard(cmp domain.GitComparison, r Range, now time.Time) string {
	var b strings.Builder
	header(&b, r)
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format(stampLayout))
	summary(&b, cmp)

	b.WriteString("## Commits\n")
	for i, c := range cmp.Commits {
		fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(c.Message, "No message"))
		if d := strings.TrimSpace(c.Description); d != "" {
			fmt.Fprintf(&b, "_%s_\n", d)
		}
		verified := "✗"
		if c.IsVerified {
			verified = "✓"
		}
		fmt.Fprintf(&b, "**Author:** %s | **Verified:** %s\n\n", orDefault(c.CommitterName, "Unknown"), verified)
	}

	b.WriteString("## File Changes\n")
	for i, f := range cmp.FileChanges {
		fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(f.FilePath, "Unknown file"))
		fmt.Fprintf(&b, "**Changes:** +%d / -%d\n", f.Additions, f.Deletions)
		b.WriteString("**Description:**\n")
		fmt.Fprintf(&b, "%s\n\n", orDefault(f.CodeChange, "No change description available"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Categorized groups commits by keyword; empty sections are omitted.
func Categorized(cmp domain.GitComparison, r Range, now time.Time) string {
	var b strings.Builder
	header(&b, r)
	b.WriteString("### This is a basic changelog generated based on heuristics.\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format(stampLayout))
	summary(&b, cmp)

	groups := make([][]domain.Commit, len(Categories))
	for _, c := range cmp.Commits {
		i := Categorize(c.Message)
		groups[i] = append(groups[i], c)
	}
	for i, commits := range groups {
		if len(commits) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", Categories[i].Title)
		for _, c := range commits {
			fmt.Fprintf(&b, "* **%s** - *%s*\n", orDefault(c.Message, "No message"), orDefault(c.CommitterName, "Unknown"))
			if d := strings.TrimSpace(c.Description); d != "" {
				fmt.Fprintf(&b, "  - %s\n", d)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// AIHeader is prepended to the model-written body.
func AIHeader(r Range, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Changelog (AI-Generated)\n\n", r.RepoName())
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format(stampLayout))
	fmt.Fprintf(&b, "Comparing [%s...%s](%s)\n\n", r.Start, r.End, r.CompareURL())
	return b.String()
}

const AISystemPrompt = "You are a helpful assistant that formats git commit data into a readable changelog."

// AIPrompt asks the model for an Added/Removed/Changed/Fixed section per commit.
func AIPrompt(cmp domain.GitComparison, r Range) string {
	link := r.CompareURL()
	var b strings.Builder
	b.WriteString("# Git Comparison Data\n\n")
	fmt.Fprintf(&b, "Repository: %s\n\n", r.RepoURL)
	b.WriteString("## Commits Information:\n")
	for _, c := range cmp.Commits {
		fmt.Fprintf(&b, "- message: %s | description: %s | committer: %s | verified: %t\n", c.Message, c.Description, c.CommitterName, c.IsVerified)
	}
	b.WriteString("\n## File Changes:\n")
	for _, f := range cmp.FileChanges {
		fmt.Fprintf(&b, "- %s (+%d/-%d): %s\n", f.FilePath, f.Additions, f.Deletions, f.CodeChange)
	}
	fmt.Fprintf(&b, `
Please create a detailed changelog in the following format for each commit:

## [[commit-id]](%[1]s)
Added
[Additions]

Removed
[Removals]

Changed
[Changed]

Fixed
[Fixes]
------------

For each commit:
1. Replace [commit-id] with the commit message but keep it within a markdown link that points to %[1]s
2. Under "Added", list what was added in the commit (new features, files, functionality)
3. Under "Removed", list what was removed (deleted functionality, deprecated features, removed files)
4. Under "Changed", list what was modified (updates to existing features, refactoring)
5. Under "Fixed", list what was fixed (bug fixes, error corrections)
6. End each commit section with a divider (------------)
7. Describe code changes in plain language that explains what changed and why it matters
8. If a section has no relevant items, omit that section entirely
`, link)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
