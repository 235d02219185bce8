package enrich

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

// maxPromptChars bounds how much extracted text is placed in the prompt.
// Archival keeps the full text; enrichment only needs enough to summarize.
const maxPromptChars = 10_000

const systemMessage = `You are a research assistant that turns captured notes and articles into structured study material. You respond with a single JSON object and nothing else.`

// buildEnrichmentPrompt constructs the enrichment prompt. When failureNote is
// non-empty the source content could not be retrieved, and the model is told
// to acknowledge that instead of inventing a summary.
func buildEnrichmentPrompt(extractedText, failureNote string) string {
	if len(extractedText) > maxPromptChars {
		// Back off to a rune boundary so the prompt stays valid UTF-8.
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(extractedText[cut]) {
			cut--
		}
		extractedText = extractedText[:cut]
	}

	var prompt strings.Builder

	prompt.WriteString("Analyze the captured content below and produce structured study material.\n\n")

	if failureNote != "" {
		prompt.WriteString("IMPORTANT: the original source could not be retrieved (")
		prompt.WriteString(failureNote)
		prompt.WriteString("). Work only from what is given below. ")
		prompt.WriteString("Begin the overview by stating that the source was unavailable. ")
		prompt.WriteString("Do not invent details about the source.\n\n")
	}

	prompt.WriteString("## Captured Content\n\n")
	prompt.WriteString(extractedText)
	prompt.WriteString("\n\n## Required Output\n\n")
	prompt.WriteString("Respond with a single JSON object with exactly these fields:\n\n")
	prompt.WriteString("- \"overview\": a 2-4 sentence plain-text summary of the core idea\n")
	prompt.WriteString("- \"deepDive\": a thorough Markdown exploration of the idea, its context and implications\n")
	prompt.WriteString("- \"topic\": a short free-form topic label (1-4 words, e.g. \"distributed systems\")\n")
	prompt.WriteString(fmt.Sprintf("- \"relatedLinks\": an array of at most %d objects, each with \"title\", \"url\" and \"description\", pointing to real resources for further reading; use [] if none apply\n\n", models.MaxRelatedLinks))
	prompt.WriteString("All fields are required. Do not add other fields. Do not wrap the JSON in markdown fences.\n")

	return prompt.String()
}
