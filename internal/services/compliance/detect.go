package compliance

import (
	"regexp"
	"strings"

	"github.com/gridseye/necomply/internal/models"
)

// systemTypeMarker matches the SYSTEM_TYPE line the vision prompt asks
// for, tolerating optional brackets around the value.
var systemTypeMarker = regexp.MustCompile(`(?i)SYSTEM_TYPE:\s*\[?(\w+)\]?`)

// keywordRule is one ordered detection fallback: if any keyword appears
// in the description, the rule's system type wins.
type keywordRule struct {
	keywords   []string
	systemType models.SystemType
}

// keywordRules are checked in order; earlier rules take precedence.
var keywordRules = []keywordRule{
	{[]string{"generator", "dg"}, models.SystemGenerator},
	{[]string{"solar", "pv", "photovoltaic"}, models.SystemSolar},
	{[]string{"motor"}, models.SystemMotor},
	{[]string{"transformer"}, models.SystemTransformer},
	{[]string{"panel", "switchboard"}, models.SystemPanel},
	{[]string{"ev", "charging"}, models.SystemEVCharging},
	{[]string{"battery", "storage"}, models.SystemBatteryStorage},
}

// DetectSystemType classifies the electrical system from the vision
// model's description. The explicit SYSTEM_TYPE marker wins when it
// names a valid type; otherwise ordered keyword matching applies, and
// detection never fails: unmatched descriptions default to commercial.
func DetectSystemType(description string) models.SystemType {
	if match := systemTypeMarker.FindStringSubmatch(description); match != nil {
		candidate := models.SystemType(strings.ToLower(match[1]))
		if candidate.IsValid() {
			return candidate
		}
	}

	lower := strings.ToLower(description)
	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.systemType
			}
		}
	}

	return models.DefaultSystemType
}
