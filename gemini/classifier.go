package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/docpipe"
	"google.golang.org/genai"
)

// Defaults for Classifier.
const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultMaxChars = 4000
)

// Ensure Classifier implements docpipe.Classifier at compile time.
var _ docpipe.Classifier = (*Classifier)(nil)

// Classifier implements docpipe.Classifier using Google Gemini.
type Classifier struct {
	client *genai.Client
	model  string

	// MaxChars bounds the document text sent with each request.
	MaxChars int
}

// NewClassifier creates a new Classifier. An empty model selects DefaultModel.
func NewClassifier(client *genai.Client, model string) *Classifier {
	if model == "" {
		model = DefaultModel
	}
	return &Classifier{client: client, model: model, MaxChars: DefaultMaxChars}
}

// Classify asks the model for the language, theme, confidence and summary of
// text. Transport failures return ECLASSIFY; unusable answers degrade to the
// sentinel error classification.
func (c *Classifier) Classify(ctx context.Context, text string) (*docpipe.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, docpipe.Errorf(docpipe.EINVALID, "text required")
	}

	maxChars := c.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	prompt := BuildUserPrompt(docpipe.Truncate(text, maxChars))

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECLASSIFY, "gemini: %s", docpipe.Truncate(err.Error(), 500))
	}
	if result == nil {
		return nil, docpipe.Errorf(docpipe.ECLASSIFY, "gemini returned nil result")
	}

	return ParseClassification(result.Text()), nil
}

// BuildConfig returns the GenerateContentConfig for classification calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "Tu es un assistant intelligent spécialisé dans l'analyse de documents. Tu réponds toujours en JSON valide.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}

// BuildUserPrompt builds the classification request for a document excerpt.
func BuildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Analyse le texte suivant extrait d'un document :\n\n")
	sb.WriteString("<document>\n")
	sb.WriteString(text)
	sb.WriteString("\n</document>\n\n")
	sb.WriteString("Donne-moi uniquement :\n")
	sb.WriteString("1. Si le document est pertinent pour une veille économique et institutionnelle (true ou false)\n")
	sb.WriteString("2. La langue principale du document (français, anglais, arabe, etc.)\n")
	sb.WriteString("3. La thématique générale du document (économie, finance, politique, juridique, etc.)\n")
	sb.WriteString("4. Un niveau de confiance (Élevé, Moyen, Faible)\n")
	sb.WriteString("5. Un résumé de deux phrases maximum, en français\n\n")
	fmt.Fprintf(&sb, "Réponds EXACTEMENT dans ce format JSON :\n%s", responseTemplate)
	return sb.String()
}

const responseTemplate = `{
  "pertinent": true,
  "langue": "langue détectée",
  "thematique": "thématique principale",
  "confiance": "niveau de confiance",
  "resume": "résumé"
}`
