// Package gitforge holds the diff/compare Markdown formatting shared by
// every git-hosting connector (github, gitlab) — the "Commit / compare"
// row of spec §4.5's observation table ("formatted diff markdown").
package gitforge

import (
	"fmt"
	"strings"
)

// Commit is one commit summary line inside a compare's <commits> section.
type Commit struct {
	SHA     string
	Author  string
	Date    string
	Message string
}

// FileDiff is one changed file inside a commit/compare's <diffs> section.
type FileDiff struct {
	Path      string
	Status    string
	Additions int
	Deletions int
	Patch     string
}

// FormatCompare renders a compare's commits and per-file diffs as the
// <commits>/<diffs> sectioned Markdown spec §8 scenario 3 requires: one
// <file_diff path="..."> block per changed file.
func FormatCompare(baseLabel, headLabel string, commits []Commit, files []FileDiff) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Compare %s...%s\n\n", baseLabel, headLabel)

	b.WriteString("<commits>\n")
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s %s %s: %s\n", c.SHA, c.Author, c.Date, firstLine(c.Message))
	}
	b.WriteString("</commits>\n\n")

	b.WriteString("<diffs>\n")
	for _, f := range files {
		fmt.Fprintf(&b, "<file_diff path=%q status=%q additions=%d deletions=%d>\n", f.Path, f.Status, f.Additions, f.Deletions)
		if f.Patch != "" {
			b.WriteString("```diff\n")
			b.WriteString(f.Patch)
			b.WriteString("\n```\n")
		}
		b.WriteString("</file_diff>\n")
	}
	b.WriteString("</diffs>\n")

	return b.String()
}

// FormatCommit renders a single commit the same way, with one implicit
// "commit" entry and its changed files.
func FormatCommit(c Commit, files []FileDiff) string {
	return FormatCompare(c.SHA+"^", c.SHA, []Commit{c}, files)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// SanitizeRefPair folds a "base...head" compare pair into a single path
// segment, the way sanitizeRefSegment folds a single ref (spec §8 scenario
// 3: "v1.0...v2.0" -> "v1.0_v2.0").
func SanitizeRefPair(base, head string) string {
	return strings.ReplaceAll(base, "/", "_") + "_" + strings.ReplaceAll(head, "/", "_")
}
