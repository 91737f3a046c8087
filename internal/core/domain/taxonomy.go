package domain

// TaxonomyEntry is one canonical classification target. The loaded taxonomy
// is read-only shared state for the duration of a batch run.
type TaxonomyEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}
