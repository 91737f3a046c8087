package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// Config describes the search space for logical reference paths.
type Config struct {
	// PrimaryRoot is the project root logical paths resolve against first.
	PrimaryRoot string
	// PublicRoot is a subtree under PrimaryRoot used as a fallback re-root.
	PublicRoot string
	// DirAliases maps case-variant directory prefixes to their canonical
	// lowercase form, e.g. "Docs" -> "docs".
	DirAliases map[string]string
	// FallbackDirs are canonical directories tried with the bare filename
	// as the last resort, in order.
	FallbackDirs []string
}

type cached struct {
	content string
	path    string
	err     error
}

// Resolver resolves logical paths to on-disk content. One Resolver is
// request-scoped: repeated lookups of the same logical path within a
// request hit the memo, never the filesystem.
type Resolver struct {
	cfg  Config
	memo map[string]cached

	statFile func(string) (os.FileInfo, error)
	readFile func(string) ([]byte, error)
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:      cfg,
		memo:     make(map[string]cached),
		statFile: os.Stat,
		readFile: os.ReadFile,
	}
}

// Resolve tries candidate locations in priority order and returns the first
// existing readable file. The order matters: exact matches win before
// increasingly lossy fallbacks.
func (r *Resolver) Resolve(logicalPath string) (string, string, error) {
	if hit, ok := r.memo[logicalPath]; ok {
		return hit.content, hit.path, hit.err
	}

	content, path, err := r.resolve(logicalPath)
	r.memo[logicalPath] = cached{content: content, path: path, err: err}
	return content, path, err
}

func (r *Resolver) resolve(logicalPath string) (string, string, error) {
	for _, generate := range r.candidateGenerators() {
		for _, candidate := range generate(logicalPath) {
			info, err := r.statFile(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			raw, err := r.readFile(candidate)
			if err != nil {
				continue
			}
			return string(raw), candidate, nil
		}
	}
	return "", "", domain.WrapError(domain.ErrAssetNotFound, "resolve asset", fmt.Errorf("no candidate found for %q", logicalPath))
}

// candidateGenerators returns the fallback chain as an ordered strategy
// list so the priority stays explicit and testable.
func (r *Resolver) candidateGenerators() []func(string) []string {
	return []func(string) []string{
		r.directCandidates,
		r.aliasCandidates,
		r.publicCandidates,
		r.basenameCandidates,
	}
}

func (r *Resolver) directCandidates(logicalPath string) []string {
	if filepath.IsAbs(logicalPath) {
		return []string{logicalPath}
	}
	return []string{filepath.Join(r.cfg.PrimaryRoot, logicalPath)}
}

// aliasCandidates substitutes a case-variant leading directory with its
// canonical lowercase form, e.g. "Docs/guide.md" -> "docs/guide.md".
func (r *Resolver) aliasCandidates(logicalPath string) []string {
	head, rest, found := strings.Cut(filepath.ToSlash(logicalPath), "/")
	if !found {
		return nil
	}

	// Map iteration order is random; walk aliases sorted by variant so
	// the candidate chain is the same on every run.
	variants := make([]string, 0, len(r.cfg.DirAliases))
	for variant := range r.cfg.DirAliases {
		variants = append(variants, variant)
	}
	sort.Strings(variants)

	var candidates []string
	for _, variant := range variants {
		if head == variant {
			candidates = append(candidates, filepath.Join(r.cfg.PrimaryRoot, r.cfg.DirAliases[variant], filepath.FromSlash(rest)))
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	for _, variant := range variants {
		canonical := r.cfg.DirAliases[variant]
		if head != canonical && strings.EqualFold(head, canonical) {
			candidates = append(candidates, filepath.Join(r.cfg.PrimaryRoot, canonical, filepath.FromSlash(rest)))
		}
	}
	return candidates
}

func (r *Resolver) publicCandidates(logicalPath string) []string {
	if r.cfg.PublicRoot == "" {
		return nil
	}
	return []string{filepath.Join(r.cfg.PrimaryRoot, r.cfg.PublicRoot, logicalPath)}
}

func (r *Resolver) basenameCandidates(logicalPath string) []string {
	base := filepath.Base(logicalPath)
	candidates := make([]string, 0, len(r.cfg.FallbackDirs))
	for _, dir := range r.cfg.FallbackDirs {
		candidates = append(candidates, filepath.Join(r.cfg.PrimaryRoot, dir, base))
	}
	return candidates
}
