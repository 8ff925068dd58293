package docpipe

import "context"

// Classification is the structured answer of the classification service.
// JSON field names match the persisted result cache format.
type Classification struct {
	Relevant   bool   `json:"pertinent"`
	Language   string `json:"langue"`
	Theme      string `json:"thematique"`
	Confidence string `json:"confiance"`
	Summary    string `json:"resume"`
}

// Sentinel values used when a classification could not be obtained.
const (
	ErrorLabel      = "Erreur"
	ErrorConfidence = "Faible"
	ErrorSummary    = "Erreur lors de l'analyse"
)

// ErrorClassification returns the sentinel classification recorded for
// documents whose classification failed.
func ErrorClassification() *Classification {
	return &Classification{
		Relevant:   false,
		Language:   ErrorLabel,
		Theme:      ErrorLabel,
		Confidence: ErrorConfidence,
		Summary:    ErrorSummary,
	}
}

// IsError reports whether c is the sentinel error classification.
func (c *Classification) IsError() bool {
	return c == nil || (c.Language == ErrorLabel && c.Theme == ErrorLabel)
}

// Classifier classifies document text.
type Classifier interface {
	// Classify returns the classification of text. Malformed responses
	// degrade to ErrorClassification; transport failures return ECLASSIFY.
	Classify(ctx context.Context, text string) (*Classification, error)
}
