package ingest

import (
	"strings"
	"unicode/utf8"
)

// TextChunk is one overlapping window over article text, positioned by
// byte offsets into the source.
type TextChunk struct {
	Text     string
	StartPos int
	EndPos   int
}

// ChunkText splits text into overlapping windows for embedding. Each
// window holds at most chunkSize characters; when a window would cut
// mid-sentence, the break moves back to the last sentence end or
// newline within the final 100 characters. Consecutive windows overlap
// by the given amount so no sentence is lost at a boundary.
func ChunkText(text string, chunkSize, overlap int) []TextChunk {
	if chunkSize <= 0 {
		return nil
	}

	var chunks []TextChunk
	start := 0

	for start < len(text) {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
			end--
		}

		// Prefer a sentence boundary in the trailing window
		if end < len(text) {
			searchStart := end - 100
			if searchStart < start {
				searchStart = start
			}
			lastPeriod := strings.LastIndex(text[searchStart:end], ". ")
			lastNewline := strings.LastIndex(text[searchStart:end], "\n")

			breakPoint := lastPeriod
			if lastNewline > breakPoint {
				breakPoint = lastNewline
			}
			if breakPoint >= 0 {
				absolute := searchStart + breakPoint
				if absolute > start {
					end = absolute + 1
				}
			}
		}

		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			chunks = append(chunks, TextChunk{
				Text:     chunkText,
				StartPos: start,
				EndPos:   end,
			})
		}

		if end < len(text) {
			start = end - overlap
			for start < len(text) && !utf8.RuneStart(text[start]) {
				start++
			}
		} else {
			start = len(text)
		}
	}

	return chunks
}
