package compliance

import (
	"fmt"
	"strings"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/services/retrieval"
)

// BuildContext assembles the compliance prompt from the diagram
// description and the retrieval bundle. The order is fixed: description,
// semantic chunks, category sections, full articles, then the task
// instruction. Sections beyond the per-section budget are truncated with
// "..." and articles with "...[truncated]".
func BuildContext(description string, bundle *retrieval.Bundle, config *common.ContextConfig) string {
	var parts []string
	parts = append(parts, "# Electrical Diagram Description\n")
	parts = append(parts, description)

	if len(bundle.Chunks) > 0 {
		parts = append(parts, "\n\n# Most Relevant NEC Passages (Semantic Search)\n")
		for _, match := range bundle.Chunks {
			parts = append(parts, fmt.Sprintf("\n## Article %d: %s (relevance: %.2f)", match.Chunk.Article, match.Chunk.ArticleTitle, match.Score))
			parts = append(parts, "\n"+match.Chunk.Text)
		}
	}

	if len(bundle.Sections) > 0 {
		parts = append(parts, "\n\n# NEC Code Sections (Category-Based)\n")
		sections := bundle.Sections
		if len(sections) > config.MaxSections {
			sections = sections[:config.MaxSections]
		}
		for _, section := range sections {
			text := section.FullText
			if len(text) > config.SectionBudget {
				text = common.TruncatePrefix(text, config.SectionBudget) + "..."
			}
			parts = append(parts, fmt.Sprintf("\n## NEC %s: %s", section.Section, section.Title))
			parts = append(parts, "\n"+text)
		}
	}

	if len(bundle.Articles) > 0 {
		parts = append(parts, "\n\n# Full Article Context\n")
		articles := bundle.Articles
		if len(articles) > config.MaxArticles {
			articles = articles[:config.MaxArticles]
		}
		for _, article := range articles {
			content := article.FullContent
			if len(content) > config.ArticleBudget {
				content = common.TruncatePrefix(content, config.ArticleBudget) + "...[truncated]"
			}
			parts = append(parts, fmt.Sprintf("\n## Article %d: %s", article.Article, article.Title))
			parts = append(parts, "\n"+content)
		}
	}

	parts = append(parts,
		"\n\n# Task\n"+
			"Evaluate the diagram against the NEC codes above. "+
			"Also use your built-in NEC knowledge to identify any additional applicable codes. "+
			"Output findings as a JSON array with pass/warning/fail/not_applicable status.")

	return strings.Join(parts, "\n")
}
