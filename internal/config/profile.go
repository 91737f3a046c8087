package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// Profile is the per-deployment pipeline description: where documents and
// prompt assets live, which reference material is fed to the oracle, and
// how messy asset paths map onto the real tree. It lives in a YAML file so
// operators can adjust the search chain without a rebuild.
type Profile struct {
	PromptTemplatePath string                  `yaml:"prompt_template"`
	PublicRoot         string                  `yaml:"public_root"`
	DirAliases         map[string]string       `yaml:"dir_aliases"`
	FallbackDirs       []string                `yaml:"fallback_dirs"`
	ReferenceAssets    []domain.ReferenceAsset `yaml:"reference_assets"`
}

func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "read pipeline profile", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "parse pipeline profile", err)
	}
	if profile.PromptTemplatePath == "" {
		return nil, domain.WrapError(domain.ErrConfig, "validate pipeline profile",
			fmt.Errorf("prompt_template is required"))
	}
	return &profile, nil
}

// PromptTemplate reads the template named by the profile, resolving a
// relative path against root.
func (p *Profile) PromptTemplate(root string) (string, error) {
	path := p.PromptTemplatePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrConfig, "read prompt template", err)
	}
	return string(raw), nil
}
