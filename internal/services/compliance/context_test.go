package compliance

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/models"
	"github.com/gridseye/necomply/internal/services/retrieval"
)

func contextTestConfig() *common.ContextConfig {
	return &common.ContextConfig{
		MaxSections:   25,
		MaxArticles:   3,
		SectionBudget: 600,
		ArticleBudget: 1500,
	}
}

func TestBuildContextOrdering(t *testing.T) {
	bundle := &retrieval.Bundle{
		Sections: []models.CodeSection{
			{Section: "445.12", Title: "Overcurrent Protection", FullText: "Generators shall be protected."},
		},
		Articles: []models.CodeArticle{
			{Article: 445, Title: "Generators", FullContent: "Article 445 covers generators."},
		},
		Chunks: []models.ChunkMatch{
			{Chunk: models.CodeChunk{Article: 445, ArticleTitle: "Generators", Text: "relevant passage"}, Score: 0.87},
		},
	}

	context := BuildContext("A standby generator diagram.", bundle, contextTestConfig())

	descIdx := strings.Index(context, "# Electrical Diagram Description")
	chunkIdx := strings.Index(context, "# Most Relevant NEC Passages (Semantic Search)")
	sectionIdx := strings.Index(context, "# NEC Code Sections (Category-Based)")
	articleIdx := strings.Index(context, "# Full Article Context")
	taskIdx := strings.Index(context, "# Task")

	for name, idx := range map[string]int{
		"description": descIdx, "chunks": chunkIdx, "sections": sectionIdx,
		"articles": articleIdx, "task": taskIdx,
	} {
		if idx < 0 {
			t.Fatalf("missing %s heading in context", name)
		}
	}

	if !(descIdx < chunkIdx && chunkIdx < sectionIdx && sectionIdx < articleIdx && articleIdx < taskIdx) {
		t.Errorf("context sections out of order: %d %d %d %d %d", descIdx, chunkIdx, sectionIdx, articleIdx, taskIdx)
	}

	if !strings.Contains(context, "## Article 445: Generators (relevance: 0.87)") {
		t.Error("chunk heading missing relevance score")
	}
	if !strings.Contains(context, "## NEC 445.12: Overcurrent Protection") {
		t.Error("section heading missing")
	}
}

func TestBuildContextOmitsEmptyGroups(t *testing.T) {
	bundle := &retrieval.Bundle{
		Sections: []models.CodeSection{
			{Section: "250.30", Title: "Grounding", FullText: "text"},
		},
	}

	context := BuildContext("desc", bundle, contextTestConfig())

	if strings.Contains(context, "Semantic Search") {
		t.Error("empty chunk group must be omitted")
	}
	if strings.Contains(context, "# Full Article Context") {
		t.Error("empty article group must be omitted")
	}
	if !strings.Contains(context, "# Task") {
		t.Error("task instruction must always be present")
	}
}

func TestBuildContextTruncation(t *testing.T) {
	config := contextTestConfig()
	longSection := strings.Repeat("s", 700)
	longArticle := strings.Repeat("a", 2000)

	bundle := &retrieval.Bundle{
		Sections: []models.CodeSection{
			{Section: "240.4", Title: "Protection of Conductors", FullText: longSection},
		},
		Articles: []models.CodeArticle{
			{Article: 240, Title: "Overcurrent Protection", FullContent: longArticle},
		},
	}

	context := BuildContext("desc", bundle, config)

	if !strings.Contains(context, strings.Repeat("s", 600)+"...") {
		t.Error("long section not truncated with ellipsis")
	}
	if strings.Contains(context, strings.Repeat("s", 601)) {
		t.Error("section exceeds budget")
	}
	if !strings.Contains(context, strings.Repeat("a", 1500)+"...[truncated]") {
		t.Error("long article not truncated with marker")
	}
}

func TestBuildContextTruncationKeepsValidUTF8(t *testing.T) {
	config := contextTestConfig()
	// Both budgets land mid-rune: "…" is 3 bytes and straddles the cut
	sectionText := strings.Repeat("s", 599) + "…extra"
	articleText := strings.Repeat("a", 1499) + "Ω trailing text"

	bundle := &retrieval.Bundle{
		Sections: []models.CodeSection{
			{Section: "240.4", Title: "Protection of Conductors", FullText: sectionText},
		},
		Articles: []models.CodeArticle{
			{Article: 240, Title: "Overcurrent Protection", FullContent: articleText},
		},
	}

	context := BuildContext("desc", bundle, config)

	if !utf8.ValidString(context) {
		t.Fatal("context contains invalid UTF-8 after truncation")
	}
	if !strings.Contains(context, strings.Repeat("s", 599)+"...") {
		t.Error("section cut must back up to the rune boundary")
	}
	if !strings.Contains(context, strings.Repeat("a", 1499)+"...[truncated]") {
		t.Error("article cut must back up to the rune boundary")
	}
}

func TestBuildContextCaps(t *testing.T) {
	config := contextTestConfig()
	config.MaxSections = 2
	config.MaxArticles = 1

	bundle := &retrieval.Bundle{
		Sections: []models.CodeSection{
			{Section: "240.1", Title: "One", FullText: "t"},
			{Section: "240.2", Title: "Two", FullText: "t"},
			{Section: "240.3", Title: "Three", FullText: "t"},
		},
		Articles: []models.CodeArticle{
			{Article: 240, Title: "First", FullContent: "c"},
			{Article: 250, Title: "Second", FullContent: "c"},
		},
	}

	context := BuildContext("desc", bundle, config)

	if strings.Contains(context, "## NEC 240.3") {
		t.Error("sections beyond cap must be dropped")
	}
	if strings.Contains(context, "## Article 250") {
		t.Error("articles beyond cap must be dropped")
	}
	if !strings.Contains(context, "## NEC 240.2") || !strings.Contains(context, "## Article 240") {
		t.Error("entries within cap must be kept")
	}
}
