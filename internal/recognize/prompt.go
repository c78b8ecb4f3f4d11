package recognize

import (
	"fmt"
	"strings"

	"github.com/dgallion1/annolex/internal/document"
)

const recognitionPrompt = `Identify legal entities in the following document excerpt. Return a JSON array. Each element must have these fields:

- "text": the entity exactly as it appears in the excerpt, character for character (string)
- "type": one of the entity type names listed below (string)

Rules:
- "text" MUST be a verbatim substring of the excerpt. Do not normalize case, punctuation or whitespace.
- Only use the entity type names listed below. Skip anything that fits none of them.
- Prefer the longest complete mention ("Acme Holdings B.V.", not "Acme").
- Do not invent character positions; positions are computed from the verbatim text.
- Return an empty array [] if the excerpt contains no entities.

Respond with ONLY the JSON array, no other text.`

// BuildWindowPrompt creates the full prompt for recognizing entities
// in one window of document text.
func BuildWindowPrompt(docTitle string, types []document.EntityType, windowText string) string {
	var sb strings.Builder
	sb.WriteString(recognitionPrompt)
	sb.WriteString("\n\nEntity types:\n")
	for _, t := range types {
		name := t.DisplayName
		if name == "" {
			name = t.Name
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, name))
	}
	sb.WriteString("\n---\n")
	sb.WriteString(fmt.Sprintf("Document: %q\n", docTitle))
	sb.WriteString("---\n")
	sb.WriteString(windowText)
	return sb.String()
}
