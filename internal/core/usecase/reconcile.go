package usecase

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

const (
	defaultQualityScore = 0.7
	maxDerivedTags      = 3
	minDerivedTagLen    = 4
)

// Outcome is the tagged reconciliation result: either a fully resolved
// record or a degraded one retaining only the raw oracle text. Both
// branches carry a well-formed ClassificationResult.
type Outcome struct {
	Result   domain.ClassificationResult
	Degraded bool
}

// oraclePayload mirrors the output contract declared to the oracle. Tags
// and Confidence stay loosely typed because the oracle does not always
// honor the contract.
type oraclePayload struct {
	DocumentTypeID string                `json:"document_type_id"`
	DocumentType   string                `json:"document_type"`
	Title          string                `json:"title"`
	Summary        string                `json:"summary"`
	Tags           any                   `json:"tags"`
	Topics         any                   `json:"topics"`
	Confidence     any                   `json:"confidence"`
	Reasoning      string                `json:"reasoning"`
	Audience       string                `json:"audience"`
	Quality        *domain.QualityScores `json:"quality"`
	Improvements   []string              `json:"improvements"`
	ProcessedAt    string                `json:"processed_at"`
}

// Reconcile turns a free-form oracle reply into a validated
// ClassificationResult against the given taxonomy snapshot. It never
// fails; an unparseable reply yields a degraded outcome with the raw text
// retained verbatim.
func Reconcile(rawText string, taxonomy []domain.TaxonomyEntry, now time.Time) Outcome {
	payload, ok := parsePayload(rawText)
	if !ok {
		return Outcome{
			Degraded: true,
			Result: domain.ClassificationResult{
				Tags:         []string{},
				QualityScore: defaultQualityScore,
				Quality:      domain.DefaultQualityScores(),
				RawResponse:  rawText,
				ProcessedAt:  now,
			},
		}
	}

	typeID, typeName := resolveType(payload, taxonomy)

	tags, derived := normalizeTags(payload, payload.Title)

	quality := domain.DefaultQualityScores()
	if payload.Quality != nil {
		quality = *payload.Quality
	}

	processedAt := now
	if ts, err := time.Parse(time.RFC3339, payload.ProcessedAt); err == nil {
		processedAt = ts
	}

	return Outcome{
		Result: domain.ClassificationResult{
			TypeID:       typeID,
			TypeName:     typeName,
			Title:        strings.TrimSpace(payload.Title),
			Summary:      strings.TrimSpace(payload.Summary),
			Tags:         tags,
			TagsDerived:  derived,
			QualityScore: normalizeScore(payload.Confidence),
			Reasoning:    strings.TrimSpace(payload.Reasoning),
			Audience:     strings.TrimSpace(payload.Audience),
			Quality:      quality,
			Improvements: payload.Improvements,
			RawResponse:  rawText,
			ProcessedAt:  processedAt,
		},
	}
}

// TypeVerified reports whether the resolved type id exists in the taxonomy
// snapshot. An unverifiable id is still accepted (the snapshot may be
// stale); callers use this for logging only.
func TypeVerified(taxonomy []domain.TaxonomyEntry, typeID string) bool {
	for _, entry := range taxonomy {
		if entry.ID == typeID {
			return true
		}
	}
	return false
}

func parsePayload(rawText string) (oraclePayload, bool) {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start < 0 || end <= start {
		return oraclePayload{}, false
	}

	var payload oraclePayload
	if err := json.Unmarshal([]byte(rawText[start:end+1]), &payload); err != nil {
		return oraclePayload{}, false
	}
	return payload, true
}

// resolveType applies the tiered matching strategy: explicit id, exact
// case-insensitive name match, substring match in either direction, then
// the taxonomy's first entry as the documented degraded default.
func resolveType(payload oraclePayload, taxonomy []domain.TaxonomyEntry) (string, string) {
	if id := strings.TrimSpace(payload.DocumentTypeID); id != "" {
		for _, entry := range taxonomy {
			if entry.ID == id {
				return id, entry.Name
			}
		}
		// The taxonomy snapshot may lag behind the store; accept as-is.
		return id, strings.TrimSpace(payload.DocumentType)
	}

	declared := strings.TrimSpace(payload.DocumentType)
	if declared != "" {
		lower := strings.ToLower(declared)
		for _, entry := range taxonomy {
			if strings.ToLower(entry.Name) == lower {
				return entry.ID, entry.Name
			}
		}
		for _, entry := range taxonomy {
			name := strings.ToLower(entry.Name)
			if strings.Contains(name, lower) || strings.Contains(lower, name) {
				return entry.ID, entry.Name
			}
		}
	}

	if len(taxonomy) > 0 {
		return taxonomy[0].ID, taxonomy[0].Name
	}
	return "", declared
}

func normalizeTags(payload oraclePayload, title string) ([]string, bool) {
	raw := payload.Tags
	if raw == nil {
		raw = payload.Topics
	}
	if raw == nil {
		return deriveTagsFromTitle(title), true
	}

	switch v := raw.(type) {
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags, false
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, false
		}
		return []string{strings.TrimSpace(v)}, false
	default:
		return []string{}, false
	}
}

// deriveTagsFromTitle is a best-effort tag seed, not a classification
// signal: up to three lowercase title words longer than three characters.
func deriveTagsFromTitle(title string) []string {
	tags := []string{}
	for _, word := range strings.Fields(title) {
		word = strings.ToLower(strings.Trim(word, ".,:;!?\"'()"))
		if len(word) < minDerivedTagLen {
			continue
		}
		tags = append(tags, word)
		if len(tags) == maxDerivedTags {
			break
		}
	}
	return tags
}

func normalizeScore(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return clampScore(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return clampScore(parsed)
		}
		return defaultQualityScore
	default:
		return defaultQualityScore
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
