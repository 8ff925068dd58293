package gemini

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/fwojciec/docpipe"
)

// Unknown is used for fields the model did not provide.
const Unknown = "Inconnu"

var (
	languagePattern   = regexp.MustCompile(`(?i)(?:langue|language)[^:\n]*:?\s*([^\n,]+)`)
	themePattern      = regexp.MustCompile(`(?i)(?:th[eé]matique|theme)[^:\n]*:?\s*([^\n,]+)`)
	confidencePattern = regexp.MustCompile(`(?i)(?:confiance|confidence)[^:\n]*:?\s*([^\n,]+)`)
	summaryPattern    = regexp.MustCompile(`(?i)(?:r[eé]sum[eé]|summary)[^:\n]*:?\s*([^\n]+)`)
	relevantPattern   = regexp.MustCompile(`(?i)(?:pertinent|relevant)[^:\n]*:?\s*"?(true|false|oui|non)`)
)

// CleanJSONBlock removes markdown code fences around a JSON answer.
func CleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	// Drop prose around the object.
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// ParseClassification decodes a model answer. It tries structured decoding
// after removing wrapper markup, then label extraction, and finally returns
// the sentinel error classification.
func ParseClassification(raw string) *docpipe.Classification {
	if c, ok := parseJSON(CleanJSONBlock(raw)); ok {
		return c
	}
	if c, ok := parseLabels(raw); ok {
		return c
	}
	return docpipe.ErrorClassification()
}

func parseJSON(s string) (*docpipe.Classification, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, false
	}

	c := &docpipe.Classification{
		Relevant:   boolField(fields, "pertinent", "relevant"),
		Language:   stringField(fields, "langue", "language"),
		Theme:      stringField(fields, "thematique", "thématique", "theme"),
		Confidence: stringField(fields, "confiance", "confidence"),
		Summary:    stringField(fields, "resume", "résumé", "summary"),
	}
	if c.Language == "" && c.Theme == "" {
		return nil, false
	}
	fillUnknown(c)
	return c, true
}

func parseLabels(s string) (*docpipe.Classification, bool) {
	c := &docpipe.Classification{
		Language:   match(languagePattern, s),
		Theme:      match(themePattern, s),
		Confidence: match(confidencePattern, s),
		Summary:    match(summaryPattern, s),
	}
	if c.Language == "" && c.Theme == "" {
		return nil, false
	}
	if v := match(relevantPattern, s); v != "" {
		c.Relevant = isTrue(v)
	}
	fillUnknown(c)
	return c, true
}

func fillUnknown(c *docpipe.Classification) {
	if c.Language == "" {
		c.Language = Unknown
	}
	if c.Theme == "" {
		c.Theme = Unknown
	}
	if c.Confidence == "" {
		c.Confidence = "Moyen"
	}
}

func match(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), `"'{}`)
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func boolField(fields map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case bool:
			return v
		case string:
			return isTrue(v)
		}
	}
	return false
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "oui", "yes":
		return true
	}
	return false
}
