package empathy

import "regexp"

// PIIEntity is one detected piece of personally identifiable information.
type PIIEntity struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
}

// Redaction patterns. Ticket text is free-form prose; a pattern pass over
// emails, phone numbers, and SSN-shaped tokens covers what support tickets
// actually leak.
var piiPatterns = []struct {
	piiType     string
	replacement string
	re          *regexp.Regexp
}{
	{"email", "[EMAIL]", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
	{"ssn", "[SSN]", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"phone", "[PHONE]", regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)},
}

// Redact replaces PII in the content and reports what was found. Positions
// refer to the original content. Patterns are applied in a fixed order so
// identical input always yields identical output.
func Redact(content string) (string, []PIIEntity) {
	var entities []PIIEntity

	redacted := content
	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			entities = append(entities, PIIEntity{
				Type:        p.piiType,
				Original:    content[loc[0]:loc[1]],
				Replacement: p.replacement,
				Start:       loc[0],
				End:         loc[1],
			})
		}
		redacted = p.re.ReplaceAllString(redacted, p.replacement)
	}

	return redacted, entities
}
