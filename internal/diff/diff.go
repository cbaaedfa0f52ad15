// Package diff computes unified diffs between unfiltered and filtered
// output.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Result holds the result of a unified diff computation.
type Result struct {
	Unified        string
	HasDifferences bool
	Hunks          []string
	OldLabel       string
	NewLabel       string
	// Removed and Added count the changed lines, excluding headers.
	Removed int
	Added   int
}

// Options configures diff computation.
type Options struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultOptions returns sensible default diff options.
func DefaultOptions() Options {
	return Options{
		OldLabel: "unfiltered",
		NewLabel: "filtered",
		Context:  3,
	}
}

// Compute computes a unified diff between two documents.
func Compute(oldDoc, newDoc string, opts Options) (*Result, error) {
	d := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	result := &Result{
		Unified:        unified,
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}

	if result.HasDifferences {
		result.Hunks = extractHunks(unified)
		result.Removed, result.Added = countChanges(unified)
	}

	return result, nil
}

// extractHunks splits unified diff output into individual hunks.
func extractHunks(unified string) []string {
	var hunks []string

	var current strings.Builder

	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "@@") && current.Len() > 0 {
			hunks = append(hunks, current.String())
			current.Reset()
		}

		if current.Len() == 0 && !strings.HasPrefix(line, "@@") {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		hunks = append(hunks, current.String())
	}

	return hunks
}

// countChanges counts removed and added lines. File headers precede the
// first hunk and are not counted.
func countChanges(unified string) (removed, added int) {
	inHunk := false

	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk:
		case strings.HasPrefix(line, "-"):
			removed++
		case strings.HasPrefix(line, "+"):
			added++
		}
	}

	return removed, added
}

// Write writes a formatted diff to w, colored when colorize is set.
func Write(w io.Writer, result *Result, colorize bool) {
	if !result.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	p := newPalette(colorize)

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			_, _ = p.header.Fprintln(w, line)
		case strings.HasPrefix(line, "@@"):
			_, _ = p.hunk.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			_, _ = p.removed.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			_, _ = p.added.Fprintln(w, line)
		default:
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

// WriteSummary writes a one-line change summary.
func WriteSummary(w io.Writer, result *Result, colorize bool) {
	p := newPalette(colorize)

	_, _ = fmt.Fprintf(w, "%s, %s\n",
		p.removed.Sprintf("%d line(s) removed", result.Removed),
		p.added.Sprintf("%d line(s) added", result.Added),
	)
}

type palette struct {
	header, hunk, removed, added *color.Color
}

// newPalette returns colors that are forced on or off regardless of the
// terminal detection done by the color package.
func newPalette(colorize bool) palette {
	p := palette{
		header:  color.New(color.Bold),
		hunk:    color.New(color.FgCyan),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}

	for _, c := range []*color.Color{p.header, p.hunk, p.removed, p.added} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// splitLines splits a string into lines for diff processing.
// Each element includes a trailing newline for difflib compatibility.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
