package llm

import (
	"fmt"
	"strings"

	"github.com/avoigt/refgen/internal/models"
)

// projectSystemPrompt is the writing persona for generated documents.
const projectSystemPrompt = `You are an experienced teacher who writes model school project reports.
Write clear, factually grounded prose appropriate for the given grade level.
Always answer with a single Markdown document and nothing else:
- Start with a level-1 heading containing the document title
- Use level-2 headings for chapters, short paragraphs, and lists where they help
- Do not include a title page; it is added separately
- End with a "Sources" chapter listing the requested number of plausible, real publications`

// BuildProjectPrompt renders the system and user prompts for a project
// request. Counts of zero fall back to sensible defaults.
func BuildProjectPrompt(req models.ProjectRequest) (system, user string) {
	pages := req.PageCount
	if pages <= 0 {
		pages = 5
	}
	sources := req.SourceCount
	if sources <= 0 {
		sources = 3
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a school project report on the topic %q.\n", req.Topic)
	if req.Subject != "" {
		fmt.Fprintf(&b, "School subject: %s.\n", req.Subject)
	}
	if req.Grade != "" {
		fmt.Fprintf(&b, "The author is in grade %s; match vocabulary and depth to that level.\n", req.Grade)
	}
	fmt.Fprintf(&b, "Target length: about %d printed pages of continuous text.\n", pages)
	fmt.Fprintf(&b, "The Sources chapter must list exactly %d entries.\n", sources)

	return projectSystemPrompt, b.String()
}
