package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusClassified DocumentStatus = "classified"
	StatusFailed     DocumentStatus = "failed"
	StatusDeleted    DocumentStatus = "deleted"
)

// Document is one file-backed unit of classification work. Path is relative
// to the configured documents root unless absolute.
type Document struct {
	ID               string         `json:"id"`
	Path             string         `json:"path"`
	ContentHash      string         `json:"content_hash,omitempty"`
	ExistsOnDisk     bool           `json:"exists_on_disk"`
	CurrentTypeID    string         `json:"current_type_id,omitempty"`
	Status           DocumentStatus `json:"status"`
	Error            string         `json:"error,omitempty"`
	Deleted          bool           `json:"deleted"`
	LastClassifiedAt *time.Time     `json:"last_classified_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Classified reports whether the document already carries a resolved type.
func (d Document) Classified() bool {
	return d.CurrentTypeID != ""
}

// ReferenceAsset names an auxiliary text fragment embedded into the
// classification prompt. Resolution happens at most once per request.
type ReferenceAsset struct {
	LogicalPath string `yaml:"path" json:"path"`
	Context     string `yaml:"context,omitempty" json:"context,omitempty"`
}

// ResolvedAsset is a ReferenceAsset together with the content found on disk.
type ResolvedAsset struct {
	Asset        ReferenceAsset
	ResolvedPath string
	Content      string
}
