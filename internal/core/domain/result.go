package domain

import "time"

// QualityScores is the nested quality sub-object the oracle reports per
// document. Sub-scores default to 1 when the oracle omits them.
type QualityScores struct {
	Clarity      float64 `json:"clarity"`
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
}

func DefaultQualityScores() QualityScores {
	return QualityScores{Clarity: 1, Completeness: 1, Accuracy: 1}
}

// ClassificationResult is the reconciled outcome for one document.
// QualityScore is always in [0,1] and Tags is never nil. TypeID is empty
// only on a degraded parse; RawResponse is retained even then.
type ClassificationResult struct {
	TypeID       string        `json:"type_id,omitempty"`
	TypeName     string        `json:"type_name,omitempty"`
	Title        string        `json:"title,omitempty"`
	Summary      string        `json:"summary,omitempty"`
	Tags         []string      `json:"tags"`
	TagsDerived  bool          `json:"tags_derived,omitempty"`
	QualityScore float64       `json:"quality_score"`
	Reasoning    string        `json:"reasoning,omitempty"`
	Audience     string        `json:"audience,omitempty"`
	Quality      QualityScores `json:"quality"`
	Improvements []string      `json:"improvements,omitempty"`
	RawResponse  string        `json:"raw_response"`
	ProcessedAt  time.Time     `json:"processed_at"`
}
