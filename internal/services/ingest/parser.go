package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/models"
)

// Structural patterns for NEC text. Section headers are a three digit
// article, a dot, and a subsection number at line start; article headers
// are "Article NNN Title" lines.
var (
	sectionPattern = regexp.MustCompile(`(?m)^(\d{3}\.\d+)\s+(.+?)$`)
	articlePattern = regexp.MustCompile(`(?mi)^Article\s+(\d{3})\s+(.+?)$`)
)

// ParseSections splits code text into individual sections. When no
// section headers are found it degrades to article-boundary splitting,
// and with no structure at all to fixed-size chunks, so ingestion always
// produces something searchable. Section text beyond textLimit is
// truncated with a trailing ellipsis.
func ParseSections(text string, textLimit int, codeVersion string) []models.CodeSection {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		articleMatches := articlePattern.FindAllStringSubmatchIndex(text, -1)
		if len(articleMatches) > 0 {
			return splitByArticles(text, articleMatches, textLimit, codeVersion)
		}
		return splitByChunks(text, textLimit, codeVersion)
	}

	sections := make([]models.CodeSection, 0, len(matches))
	for i, match := range matches {
		sectionNum := text[match[2]:match[3]]
		title := strings.TrimSpace(text[match[4]:match[5]])

		start := match[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sectionText := strings.TrimSpace(text[start:end])
		if textLimit > 0 && len(sectionText) > textLimit {
			sectionText = common.TruncatePrefix(sectionText, textLimit) + "..."
		}

		article := models.ArticleFromSection(sectionNum)

		sections = append(sections, models.CodeSection{
			Section:     sectionNum,
			Title:       title,
			FullText:    sectionText,
			Article:     article,
			Chapter:     article / 100,
			Categories:  models.CategoriesForArticle(article),
			CodeVersion: codeVersion,
		})
	}

	return sections
}

// ParseArticles splits code text into full articles, one per article
// header, each carrying its complete text up to the next header.
func ParseArticles(text string, codeVersion string) []models.CodeArticle {
	matches := articlePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	articles := make([]models.CodeArticle, 0, len(matches))
	for i, match := range matches {
		number, err := strconv.Atoi(text[match[2]:match[3]])
		if err != nil {
			continue
		}
		title := strings.TrimSpace(text[match[4]:match[5]])

		start := match[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		articles = append(articles, models.CodeArticle{
			Article:     number,
			Title:       title,
			FullContent: strings.TrimSpace(text[start:end]),
			Chapter:     number / 100,
			Categories:  models.CategoriesForArticle(number),
			CodeVersion: codeVersion,
		})
	}

	return articles
}

// splitByArticles produces sections from article boundaries when no
// section numbers are present. Long articles become numbered parts.
func splitByArticles(text string, matches [][]int, textLimit int, codeVersion string) []models.CodeSection {
	var sections []models.CodeSection

	for i, match := range matches {
		articleNum := text[match[2]:match[3]]
		title := strings.TrimSpace(text[match[4]:match[5]])

		start := match[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		articleText := strings.TrimSpace(text[start:end])

		article, err := strconv.Atoi(articleNum)
		if err != nil {
			article = 0
		}
		chapter := article / 100
		categories := models.CategoriesForArticle(article)

		if textLimit > 0 && len(articleText) > textLimit {
			for j, part := range chunkByParagraphs(articleText, textLimit) {
				sections = append(sections, models.CodeSection{
					Section:     fmt.Sprintf("%s.%d", articleNum, j),
					Title:       fmt.Sprintf("%s (Part %d)", title, j+1),
					FullText:    part,
					Article:     article,
					Chapter:     chapter,
					Categories:  categories,
					CodeVersion: codeVersion,
				})
			}
		} else {
			sections = append(sections, models.CodeSection{
				Section:     articleNum,
				Title:       title,
				FullText:    articleText,
				Article:     article,
				Chapter:     chapter,
				Categories:  categories,
				CodeVersion: codeVersion,
			})
		}
	}

	return sections
}

// splitByChunks is the last-resort splitter for completely unstructured
// text.
func splitByChunks(text string, textLimit int, codeVersion string) []models.CodeSection {
	var sections []models.CodeSection
	for i, chunk := range chunkByParagraphs(text, textLimit) {
		sections = append(sections, models.CodeSection{
			Section:     fmt.Sprintf("chunk_%d", i+1),
			Title:       fmt.Sprintf("NEC Content (Chunk %d)", i+1),
			FullText:    chunk,
			CodeVersion: codeVersion,
		})
	}
	return sections
}

// chunkByParagraphs groups paragraphs into chunks no larger than limit,
// never splitting inside a paragraph.
func chunkByParagraphs(text string, limit int) []string {
	var chunks []string
	var current strings.Builder

	for _, para := range strings.Split(text, "\n\n") {
		if current.Len() > 0 && current.Len()+len(para) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
