// Package discovery scans a workspace tree for package.json manifests and
// extracts the public package identities declared in them.
package discovery

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/raveheart1/changekit/internal/pathguard"
	"github.com/raveheart1/changekit/internal/validation"
)

// DefaultMaxManifests bounds how many manifests one scan will process.
// Beyond this the scan fails rather than chewing through a pathological tree.
const DefaultMaxManifests = 1000

const manifestName = "package.json"

// excludePatterns are subtrees never scanned for manifests: dependency caches
// and source-control metadata.
var excludePatterns = []string{
	"**/node_modules/**",
	"node_modules/**",
	"**/.git/**",
	".git/**",
}

// Package is one discovered workspace package. Dir is absolute, canonical,
// and guaranteed to lie inside the workspace root.
type Package struct {
	Name string
	Dir  string
}

// manifest is the subset of package.json fields discovery cares about.
type manifest struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// Discover enumerates manifests under rootPath and returns the public
// packages they declare, deduplicated by name. The root manifest's own
// package, when present, public, and validly named, always appears first;
// the rest follow walk order. Manifests that fail to parse, lack a name, are
// marked private, fail name validation, or resolve outside the root are
// skipped. maxManifests <= 0 selects DefaultMaxManifests.
func Discover(rootPath string, maxManifests int) ([]Package, error) {
	root, err := pathguard.Confine(rootPath, rootPath)
	if err != nil {
		return nil, fmt.Errorf("validating workspace root: %w", err)
	}
	if maxManifests <= 0 {
		maxManifests = DefaultMaxManifests
	}

	var packages []Package
	seen := make(map[string]bool)
	processed := 0

	rootManifest := filepath.Join(root, manifestName)
	if _, statErr := os.Stat(rootManifest); statErr == nil {
		processed++
		if pkg, ok := parseManifest(rootManifest, root); ok {
			packages = append(packages, pkg)
			seen[pkg.Name] = true
		}
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			switch d.Name() {
			case "node_modules", ".git":
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != manifestName || excluded(rel) || path == rootManifest {
			return nil
		}

		processed++
		if processed > maxManifests {
			return fmt.Errorf("workspace contains more than %d manifests; narrow the scan", maxManifests)
		}

		if pkg, ok := parseManifest(path, root); ok && !seen[pkg.Name] {
			packages = append(packages, pkg)
			seen[pkg.Name] = true
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return packages, nil
}

// excluded reports whether the slash-separated relative manifest path matches
// any exclusion pattern. The walk already prunes excluded directories; this
// catches manifests reached through other walk entry points.
func excluded(rel string) bool {
	for _, pattern := range excludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// parseManifest reads one manifest and returns its package when it is
// parseable, named, public, validly named, and confined to root.
func parseManifest(path, root string) (Package, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Package{}, false
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Package{}, false
	}
	if m.Name == "" || m.Private || !validation.IsValidPackageName(m.Name) {
		return Package{}, false
	}
	dir, err := pathguard.Confine(filepath.Dir(path), root)
	if err != nil {
		return Package{}, false
	}
	return Package{Name: m.Name, Dir: dir}, true
}

// Names returns just the package names, preserving order.
func Names(packages []Package) []string {
	names := make([]string, len(packages))
	for i, p := range packages {
		names[i] = p.Name
	}
	return names
}
