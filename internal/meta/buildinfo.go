// Package meta detects the build layout of the hosting project (Gradle or
// Maven) so named sub-modules can be resolved to directories.
//
// Goals:
//   - Best-effort parsing: tolerate partial/absent files
//   - No evaluation of build scripts; settings are scanned textually
//   - Deterministic results (module names sorted)
package meta

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Info is a minimal summary of the project's build layout.
type Info struct {
	Build    string            // "gradle"|"maven"|"" (unknown)
	RootName string            // rootProject.name / artifactId (best-effort)
	Modules  map[string]string // module name -> absolute directory
}

// Names returns the detected module names in sorted order.
func (inf Info) Names() []string {
	out := make([]string, 0, len(inf.Modules))
	for n := range inf.Modules {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Detect probes the project root. Priority (first match wins): Gradle > Maven.
//
// Gradle module names drop the leading ':' and keep nested separators
// (":core:api" -> "core:api"); their default directory maps ':' to '/'.
func Detect(root string) Info {
	absRoot, _ := filepath.Abs(root)

	if p := firstExisting(absRoot, "settings.gradle.kts", "settings.gradle"); p != "" {
		if inf, ok := detectGradle(absRoot, p); ok {
			return inf
		}
	}
	if p := firstExisting(absRoot, "pom.xml"); p != "" {
		if inf, ok := detectMaven(absRoot, p); ok {
			return inf
		}
	}
	return Info{}
}

// ------------------------------ Gradle ---------------------------------------

var (
	reGradleRootName   = regexp.MustCompile(`(?m)^\s*rootProject\.name\s*=\s*["']([^"']+)["']`)
	reGradleInclude    = regexp.MustCompile(`(?m)^\s*include(?:\s*\(|\s+)([^)\n]*)`)
	reGradleQuoted     = regexp.MustCompile(`["']([^"']+)["']`)
	reGradleProjectDir = regexp.MustCompile(`project\(\s*["']([^"']+)["']\s*\)\.projectDir\s*=\s*(?:file|File)\(\s*["']([^"']+)["']\s*\)`)
)

func detectGradle(root, settingsPath string) (Info, bool) {
	b, err := os.ReadFile(settingsPath)
	if err != nil {
		return Info{}, false
	}
	text := stripLineComments(string(b))

	inf := Info{
		Build:   "gradle",
		Modules: map[string]string{},
	}
	if m := reGradleRootName.FindStringSubmatch(text); m != nil {
		inf.RootName = m[1]
	} else {
		inf.RootName = filepath.Base(root)
	}

	for _, inc := range reGradleInclude.FindAllStringSubmatch(text, -1) {
		for _, q := range reGradleQuoted.FindAllStringSubmatch(inc[1], -1) {
			name := strings.TrimPrefix(strings.TrimSpace(q[1]), ":")
			if name == "" {
				continue
			}
			inf.Modules[name] = filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(name, ":", "/")))
		}
	}

	for _, m := range reGradleProjectDir.FindAllStringSubmatch(text, -1) {
		name := strings.TrimPrefix(m[1], ":")
		dir := filepath.FromSlash(m[2])
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		inf.Modules[name] = filepath.Clean(dir)
	}
	return inf, true
}

// stripLineComments removes // comments so commented-out includes are ignored.
func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if idx := strings.Index(ln, "//"); idx >= 0 {
			lines[i] = ln[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// ------------------------------ Maven ----------------------------------------

type pomXML struct {
	XMLName    xml.Name `xml:"project"`
	ArtifactID string   `xml:"artifactId"`
	Modules    []string `xml:"modules>module"`
}

func detectMaven(root, pomPath string) (Info, bool) {
	b, err := os.ReadFile(pomPath)
	if err != nil {
		return Info{}, false
	}
	var p pomXML
	if err := xml.Unmarshal(b, &p); err != nil {
		return Info{}, false
	}
	inf := Info{
		Build:    "maven",
		RootName: firstNonEmpty(p.ArtifactID, filepath.Base(root)),
		Modules:  map[string]string{},
	}
	for _, m := range p.Modules {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		inf.Modules[filepath.Base(m)] = filepath.Join(root, filepath.FromSlash(m))
	}
	return inf, true
}

// ---------------------------- helpers ---------------------------------------

func firstExisting(root string, names ...string) string {
	for _, n := range names {
		p := filepath.Join(root, n)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return ""
}
