package ollama

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-triage/internal/core/ports"
)

const outputContract = `Respond with a single JSON object and nothing else, using exactly these keys:
document_type_id (string, id of the matching document type),
document_type (string, name of the matching document type),
title (string),
summary (string),
tags (array of strings),
confidence (number from 0 to 1),
reasoning (string),
audience (string),
quality (object with numeric keys clarity, completeness, accuracy),
improvements (array of strings).
Do not emit markdown, prose, or any text outside the JSON object.`

// truncateContent cuts content to at most maxBytes without splitting a
// multibyte rune; a torn rune would put invalid UTF-8 into the prompt.
func truncateContent(content string, maxBytes int) string {
	if len(content) <= maxBytes {
		return content
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// buildClassificationPrompt embeds the template, the taxonomy, one context
// block per resolved reference asset, and the document content truncated
// to maxContentBytes.
func buildClassificationPrompt(req ports.OracleRequest, maxContentBytes int) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(req.PromptTemplate))
	b.WriteString("\n\nDocument types:\n")
	for _, entry := range req.Taxonomy {
		b.WriteString(fmt.Sprintf("- id=%s name=%q category=%s", entry.ID, entry.Name, entry.Category))
		if entry.Description != "" {
			b.WriteString(": " + entry.Description)
		}
		b.WriteString("\n")
	}

	for _, asset := range req.Assets {
		b.WriteString(fmt.Sprintf("\nReference material (%s)", asset.Asset.LogicalPath))
		if asset.Asset.Context != "" {
			b.WriteString(": " + asset.Asset.Context)
		}
		b.WriteString("\n---\n")
		b.WriteString(strings.TrimSpace(asset.Content))
		b.WriteString("\n---\n")
	}

	content := truncateContent(req.Content, maxContentBytes)
	b.WriteString("\nDocument content:\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(outputContract)

	return b.String()
}
