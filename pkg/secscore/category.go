package secscore

import "strings"

// categoryRule is one entry in the priority-ordered CPE heuristic.
// Re-ordering this list changes results for ambiguous CPE sets; any change
// needs a regression corpus of CPE-to-category cases first.
type categoryRule struct {
	category string
	matches  []string
}

var categoryRules = []categoryRule{
	{"php", []string{"php"}},
	{"webapps", []string{"wordpress", "joomla"}},
	{"windows", []string{"microsoft", "windows"}},
	{"linux", []string{"linux", "kernel"}},
	{"android", []string{"android", "google:android"}},
	{"ios", []string{"apple:iphone_os", "ios"}},
	{"macos", []string{"apple:mac_os_x", "macos"}},
	{"java", []string{"oracle:java", ":java", "openjdk", "jdk"}},
	{"dos", []string{"denial_of_service", ":dos", "/dos"}},
	{"asp", []string{"asp.net", "aspnet"}},
	{"hardware", []string{":h:", "firmware", "hardware"}},
	{"remote", []string{"remote"}},
	{"local", []string{"local"}},
}

// InferCategory maps a set of CPE strings to a model category using the
// first-match-wins priority order above, case-insensitively. An empty or
// missing CPE list always yields "default".
func InferCategory(cpe []string) string {
	if len(cpe) == 0 {
		return "default"
	}

	lowered := make([]string, len(cpe))
	for i, c := range cpe {
		lowered[i] = strings.ToLower(c)
	}

	for _, rule := range categoryRules {
		for _, c := range lowered {
			for _, needle := range rule.matches {
				if strings.Contains(c, needle) {
					return rule.category
				}
			}
		}
	}
	return "default"
}
