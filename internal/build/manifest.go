package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin"
)

// ManifestFile is written to the output directory after every build.
const ManifestFile = ".gardenbuild-manifest.json"

const manifestVersion = 1

// PageEntry records what a content page was built from.
type PageEntry struct {
	Fingerprint string `json:"fingerprint"`
	// Deps hashes everything besides the source that ends up on the page:
	// rendered HTML, metadata and backlinks.
	Deps string `json:"deps"`
}

// Manifest is the record of a build's inputs and outputs.
type Manifest struct {
	Version     int                  `json:"version"`
	BuildID     string               `json:"build_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	ConfigHash  string               `json:"config_hash"`
	Pages       map[string]PageEntry `json:"pages"`
	Outputs     []string             `json:"outputs"`
}

// LoadManifest reads the manifest of a previous build. A missing file returns
// (nil, nil).
func LoadManifest(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return nil, nil
	}
	return &m, nil
}

// Save writes the manifest to outputDir.
func (m *Manifest) Save(outputDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(outputDir, ManifestFile), data, 0o644)
}

// pageDeps hashes the inputs of a document's page besides its source.
func pageDeps(site *plugin.Site, d *content.Document) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(d.Title, d.Description, d.Lang, d.HTML, site.Date(d).UTC().Format(time.RFC3339))
	write(d.Tags...)
	write(d.CSSClasses...)
	for _, e := range d.TOC {
		write(e.ID, e.Text)
	}
	for _, b := range site.Backlinks(d.Slug) {
		write("backlink", b.Slug, b.Title)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// planUnchanged marks pages whose source, dependencies and config match prev
// and whose output still exists. It returns the number of marked pages.
func planUnchanged(site *plugin.Site, prev *Manifest, configHash string, out plugin.Output) int {
	if prev == nil || prev.ConfigHash != configHash {
		return 0
	}
	n := 0
	for _, d := range site.Documents {
		entry, ok := prev.Pages[d.Slug]
		if !ok || entry.Fingerprint != d.Fingerprint || entry.Deps != pageDeps(site, d) {
			continue
		}
		if !out.Exists(content.OutputPath(d.Slug)) {
			continue
		}
		site.Unchanged[d.Slug] = true
		n++
	}
	return n
}

// newManifest records the published pages and the emitted files.
func newManifest(buildID string, at time.Time, configHash string, site *plugin.Site, outputs []string) *Manifest {
	m := &Manifest{
		Version:     manifestVersion,
		BuildID:     buildID,
		GeneratedAt: at,
		ConfigHash:  configHash,
		Pages:       make(map[string]PageEntry, len(site.Documents)),
	}
	for _, d := range site.Documents {
		m.Pages[d.Slug] = PageEntry{Fingerprint: d.Fingerprint, Deps: pageDeps(site, d)}
	}
	seen := map[string]bool{}
	for _, o := range outputs {
		if !seen[o] {
			seen[o] = true
			m.Outputs = append(m.Outputs, o)
		}
	}
	sort.Strings(m.Outputs)
	return m
}

// removeStale deletes files the previous build wrote that this build did
// not, then prunes directories left empty. It returns the number removed.
func removeStale(outputDir string, prev *Manifest, current []string) (int, error) {
	if prev == nil {
		return 0, nil
	}
	keep := make(map[string]bool, len(current))
	for _, c := range current {
		keep[c] = true
	}
	removed := 0
	for _, rel := range prev.Outputs {
		if keep[rel] || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
			continue
		}
		abs := filepath.Join(outputDir, filepath.FromSlash(rel))
		if err := os.Remove(abs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		removed++
		pruneEmptyParents(outputDir, filepath.Dir(abs))
	}
	return removed, nil
}

func pruneEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

// cleanOutput removes the contents of dir, keeping dir itself.
func cleanOutput(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
