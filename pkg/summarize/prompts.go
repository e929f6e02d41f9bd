package summarize

import (
	"fmt"
	"strings"
)

// Placeholders substituted into the prompt templates. Each template must
// contain its placeholder exactly once.
const (
	TextPlaceholder      = "{{text}}"
	SummariesPlaceholder = "{{summaries}}"
)

// NoteSeparator joins chunk notes before synthesis. Chosen so it is unlikely
// to occur inside model output.
const NoteSeparator = "\n\n---\n\n"

// DefaultMapPrompt extracts facts from one chunk of a paper.
const DefaultMapPrompt = `You are reading one section of a research paper. Extract the key technical facts from it as concise bullet points. Include:
- the problem being addressed
- methods, architectures or algorithms described
- quantitative results, metrics and comparisons
- limitations the authors state

Only report what this section actually says. Do not speculate about the rest of the paper.

Section:
{{text}}`

// DefaultReducePrompt synthesizes the final report from all chunk notes.
const DefaultReducePrompt = `Below are fact notes extracted from consecutive sections of one research paper, separated by "---". Synthesize them into a single technical report in Markdown with exactly this structure:

# <paper title, best guess from the notes>
<one-sentence summary of the paper>

## Problem
## Methodology
## Results
## Takeaway
<one practical sentence for engineers>

Resolve duplicated facts across notes, keep all quantitative results, and do not invent information that is not in the notes.

Notes:
{{summaries}}`

// validateTemplate checks that tpl contains placeholder exactly once.
func validateTemplate(tpl, placeholder string) error {
	switch n := strings.Count(tpl, placeholder); n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("template is missing the %s placeholder", placeholder)
	default:
		return fmt.Errorf("template contains %s %d times, want exactly once", placeholder, n)
	}
}

func renderTemplate(tpl, placeholder, value string) string {
	return strings.Replace(tpl, placeholder, value, 1)
}
