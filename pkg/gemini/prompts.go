package gemini

import (
	"encoding/json"
	"strings"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

const criticalPrompt = "**CRITICAL: Your entire response MUST be a single, valid JSON object. " +
	"Do not add any text outside the JSON. All strings, especially those with Markdown, " +
	"must have internal double quotes escaped like this: \\\". " +
	"An invalid JSON response will cause a system failure.**"

// buildPrompt produces the instruction for one generation call. With a
// previous document set the call is incremental: the service is told to merge
// and extend rather than duplicate. Otherwise the call is fresh and
// self-contained.
func buildPrompt(parts []domain.ContentPart, hasVideo bool, previous *domain.DocumentSet) (string, error) {
	if previous != nil {
		previousJSON, err := json.Marshal(previous)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		b.WriteString("You are updating a suite of QA documents based on a new video segment. ")
		b.WriteString("I have already processed previous parts of the video, and here is the documentation generated so far in JSON format:\n\n")
		b.WriteString("--- PREVIOUS DOCUMENTS (JSON) ---\n")
		b.Write(previousJSON)
		b.WriteString("\n--- END PREVIOUS DOCUMENTS ---\n\n")
		b.WriteString("Now, analyze this new video segment. Your task is to intelligently merge, update, and extend the previous documentation with new information found in this segment.\n\n")
		b.WriteString("**IMPORTANT RULES:**\n")
		b.WriteString("1.  **DO NOT DUPLICATE:** Avoid adding test cases, user stories, or feature descriptions that are already covered in the previous documents.\n")
		b.WriteString("2.  **MERGE & REFINE:** If the new video provides more detail on an existing feature, refine the existing descriptions, steps, or criteria rather than adding a new item.\n")
		b.WriteString("3.  **EXTEND:** Add new test plans, test cases, stories, etc., only for *new* functionality revealed in this video segment.\n")
		b.WriteString("4.  **MAINTAIN FORMAT:** The final output must be a single, consolidated JSON object that adheres to the provided schema.\n\n")
		b.WriteString(criticalPrompt)
		return b.String(), nil
	}

	textDescription := strings.TrimSpace(domain.PlainText(parts))
	hasText := textDescription != ""
	hasImages := false
	for _, p := range parts {
		if p.IsImage() {
			hasImages = true
			break
		}
	}

	var b strings.Builder
	b.WriteString("As an expert QA engineer and technical writer, analyze the provided media to generate a comprehensive, professional-grade suite of QA documents. ")
	b.WriteString("Your output must be a JSON object matching the provided schema.\n\n")
	b.WriteString(criticalPrompt)
	b.WriteString("\n\nThe documents must be exceptionally detailed, specific, and tailored to the feature presented. ")
	b.WriteString("Avoid all generic, boilerplate, or placeholder text. Base every part of your response on the concrete details you can extract from the provided media.")

	switch {
	case hasVideo && (hasText || hasImages):
		b.WriteString("\n\nYou must synthesize information from *all* attached media: the video, the text description, and any inline images. ")
		b.WriteString("A comprehensive analysis requires using all sources equally.\n\n--- TEXT DESCRIPTION ---\n")
		b.WriteString(textDescription)
	case hasVideo:
		b.WriteString("\n\nThe sole source of information is the attached video. Analyze it carefully to understand the feature's functionality, UI, and user flows.")
	default:
		b.WriteString("\n\nThe source of information is the following text description and any accompanying images. Analyze them carefully.\n\n--- TEXT DESCRIPTION ---\n")
		b.WriteString(textDescription)
	}

	return b.String(), nil
}

// unwrapFence strips a ```json fenced code block wrapper if the model added
// one despite the JSON response mime type.
func unwrapFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.LastIndex(trimmed, "```"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.TrimSpace(trimmed)
}
