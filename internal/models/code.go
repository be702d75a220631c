package models

import (
	"strconv"
	"strings"
	"time"
)

// ArticleCategories maps NEC article numbers to category keywords.
// Used to tag sections and articles at ingest time.
var ArticleCategories = map[int][]string{
	100: {"definitions"},
	110: {"general", "installation"},
	200: {"wiring", "circuits"},
	210: {"branch_circuits", "residential"},
	215: {"feeders"},
	220: {"calculations", "load"},
	225: {"outside_branch"},
	230: {"services"},
	240: {"overcurrent", "protection", "breakers"},
	250: {"grounding", "bonding"},
	300: {"wiring_methods"},
	310: {"conductors"},
	400: {"flexible_cords"},
	408: {"panels", "switchboards"},
	409: {"industrial_control"},
	430: {"motors"},
	440: {"hvac", "air_conditioning"},
	445: {"generators"},
	450: {"transformers"},
	480: {"batteries", "storage"},
	500: {"hazardous", "classified"},
	600: {"signs", "lighting"},
	625: {"ev_charging"},
	680: {"pools", "spas"},
	690: {"solar", "photovoltaic"},
	700: {"emergency", "standby"},
	702: {"optional_standby"},
	705: {"interconnection", "parallel", "distributed"},
	706: {"energy_storage"},
	708: {"critical_operations"},
	725: {"remote_control", "signaling"},
	760: {"fire_alarm"},
}

// CodeSection is one retrievable unit of category-based regulatory text,
// e.g. section "445.12" within article 445.
type CodeSection struct {
	Section     string    `json:"section"` // e.g. "445.12"
	Title       string    `json:"title"`
	FullText    string    `json:"full_text"`
	Article     int       `json:"article"` // leading numeric component of Section, 0 if none
	Chapter     int       `json:"chapter"` // Article / 100
	Categories  []string  `json:"categories"`
	CodeVersion string    `json:"code_version"` // NEC edition year, e.g. "2023"
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the storage key for this section, unique per corpus version.
func (s *CodeSection) Key() string {
	return s.CodeVersion + ":" + s.Section
}

// CodeArticle is the complete text of one NEC article, coarser granularity
// than CodeSection.
type CodeArticle struct {
	Article     int      `json:"article"`
	Title       string   `json:"title"`
	FullContent string   `json:"full_content"`
	Chapter     int      `json:"chapter"`
	Categories  []string `json:"categories"`
	CodeVersion string   `json:"code_version"`
}

// Key returns the storage key for this article, unique per corpus version.
func (a *CodeArticle) Key() string {
	return a.CodeVersion + ":" + strconv.Itoa(a.Article)
}

// CodeChunk is an overlapping text window of an article's content prepared
// for embedding similarity search.
type CodeChunk struct {
	ChunkID      string    `json:"chunk_id"` // "<article>_<index>"
	Article      int       `json:"article"`
	ArticleTitle string    `json:"article_title"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"embedding,omitempty"`
	StartPos     int       `json:"start_pos"`
	EndPos       int       `json:"end_pos"`
	CodeVersion  string    `json:"code_version"`
}

// Key returns the storage key for this chunk, unique per corpus version.
func (c *CodeChunk) Key() string {
	return c.CodeVersion + ":" + c.ChunkID
}

// ChunkMatch pairs a chunk with its similarity score from semantic search.
type ChunkMatch struct {
	Chunk CodeChunk `json:"chunk"`
	Score float64   `json:"score"`
}

// ArticleFromSection extracts the article number from a section identifier
// (e.g. "445.12" -> 445). Returns 0 when the identifier has no numeric
// article component.
func ArticleFromSection(section string) int {
	head, _, _ := strings.Cut(section, ".")
	article, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return article
}

// CategoriesForArticle returns the category tags for an article number,
// or nil for unmapped articles.
func CategoriesForArticle(article int) []string {
	return ArticleCategories[article]
}
