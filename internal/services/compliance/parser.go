package compliance

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gridseye/necomply/internal/models"
)

// jsonArrayPattern finds the outermost bracketed span in free text.
var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// ParseFindings extracts a findings array from a raw model response.
// Model output is unreliable, so extraction tries progressively looser
// strategies: strip a leading thinking block, then look for a fenced
// json code block, any fenced block, a response that already starts
// with "[", and finally the widest bracketed span. A response that
// parses to something other than an array yields an empty findings
// list; a response that fails to parse at all yields a single synthetic
// warning finding so the pipeline still completes.
func ParseFindings(content string) []models.Finding {
	cleaned := stripThinking(content)
	candidate := extractJSON(cleaned)

	var raw any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return []models.Finding{parseErrorFinding(err)}
	}

	if _, ok := raw.([]any); !ok {
		return []models.Finding{}
	}

	var findings []models.Finding
	if err := json.Unmarshal([]byte(candidate), &findings); err != nil {
		return []models.Finding{parseErrorFinding(err)}
	}
	if findings == nil {
		findings = []models.Finding{}
	}
	return findings
}

// stripThinking removes a <think>...</think> preamble when both tags
// are present, keeping the text after the closing tag.
func stripThinking(content string) string {
	if strings.Contains(content, "<think>") && strings.Contains(content, "</think>") {
		if _, after, found := strings.Cut(content, "</think>"); found {
			return strings.TrimSpace(after)
		}
	}
	return content
}

// extractJSON picks the most plausible JSON payload out of the response.
func extractJSON(content string) string {
	if strings.Contains(content, "```json") {
		after := strings.SplitN(content, "```json", 2)[1]
		return strings.TrimSpace(strings.SplitN(after, "```", 2)[0])
	}
	if strings.Contains(content, "```") {
		parts := strings.Split(content, "```")
		if len(parts) > 1 {
			return strings.TrimSpace(parts[1])
		}
	}
	if strings.HasPrefix(strings.TrimSpace(content), "[") {
		return strings.TrimSpace(content)
	}
	if match := jsonArrayPattern.FindString(content); match != "" {
		return match
	}
	return content
}

// parseErrorFinding is the synthetic warning recorded when the model
// response cannot be parsed as findings.
func parseErrorFinding(err error) models.Finding {
	return models.Finding{
		ID:          "error",
		Name:        "Parse Error",
		Status:      models.StatusWarning,
		Standard:    "N/A",
		Message:     "Error analyzing compliance: " + err.Error(),
		Description: "Failed to parse compliance check results",
		Location:    models.DiagramLocation{Sheet: 1, Region: "Unknown"},
	}
}
