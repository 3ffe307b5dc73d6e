package preflight

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Scope is the deployment scope declared by a Bicep template
type Scope string

const (
	ScopeResourceGroup   Scope = "resourceGroup"
	ScopeSubscription    Scope = "subscription"
	ScopeManagementGroup Scope = "managementGroup"
	ScopeTenant          Scope = "tenant"
	// ScopeUnknown marks a template that could not be read
	ScopeUnknown Scope = "unknown"
)

const azdProjectFile = "azure.yaml"

var (
	targetScopePattern = regexp.MustCompile(`targetScope\s*=\s*['"](resourceGroup|subscription|managementGroup|tenant)['"]`)

	bicepPatterns = []glob.Glob{
		glob.MustCompile("**/*.bicep", '/'),
		glob.MustCompile("*.bicep", '/'),
	}
)

// FindAzdProject reports whether root holds an azd project
func FindAzdProject(root string) bool {
	info, err := os.Stat(filepath.Join(root, azdProjectFile))
	return err == nil && !info.IsDir()
}

// FindBicepFiles returns every .bicep file under root, sorted. Hidden
// directories are not descended into.
func FindBicepFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchesBicep(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func matchesBicep(rel string) bool {
	for _, g := range bicepPatterns {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// DetectParamFiles returns the parameter files that sit next to a template:
// <base>.bicepparam, <base>.parameters.json, parameters.json and parameters
func DetectParamFiles(bicepPath string) []string {
	base := strings.TrimSuffix(bicepPath, filepath.Ext(bicepPath))
	dir := filepath.Dir(bicepPath)

	candidates := []string{
		base + ".bicepparam",
		base + ".parameters.json",
		filepath.Join(dir, "parameters.json"),
		filepath.Join(dir, "parameters"),
	}

	var found []string
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	return found
}

// TargetScope reads the targetScope of a template, defaulting to resourceGroup
func TargetScope(bicepPath string) Scope {
	data, err := os.ReadFile(bicepPath)
	if err != nil {
		return ScopeUnknown
	}

	m := targetScopePattern.FindSubmatch(data)
	if m == nil {
		return ScopeResourceGroup
	}
	return Scope(m[1])
}
