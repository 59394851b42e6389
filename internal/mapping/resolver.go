// Package mapping resolves configured package and resource mappings to their
// concrete locations: the generated-baseline cache and the developer-owned
// module tree.
//
// Resolution is pure path computation plus existence checks for named
// sub-modules. A mapping whose module cannot be resolved is reported with an
// error wrapping ErrModuleNotFound; callers skip it rather than abort.
package mapping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"decompile-patcher/internal/config"
	"decompile-patcher/internal/meta"
)

// ErrModuleNotFound is wrapped when a module target has no resolvable root.
var ErrModuleNotFound = errors.New("module not found")

// Kind distinguishes package mappings from resource mappings.
type Kind int

const (
	PackageKind Kind = iota
	ResourceKind
)

func (k Kind) String() string {
	if k == ResourceKind {
		return "resource"
	}
	return "package"
}

// Entry is one configured mapping with its resolution outcome.
//
// Key is the package path or resource name (slash separated). ModuleDir is
// empty and Err non-nil when the module target could not be resolved.
type Entry struct {
	Kind      Kind
	Key       string
	Module    string
	ModuleDir string
	Err       error
}

// Resolver maps module targets to directories for one project.
type Resolver struct {
	cfg    *config.Config
	layout meta.Info
}

// New builds a resolver for cfg. The build layout (Gradle settings or Maven
// modules) is detected once, up front.
func New(cfg *config.Config) *Resolver {
	layout := meta.Detect(cfg.ProjectDir)
	if layout.Build != "" {
		log.Debug().Str("build", layout.Build).Strs("modules", layout.Names()).Msg("build layout detected")
	}
	return &Resolver{cfg: cfg, layout: layout}
}

// ModuleRoot resolves a module target. "." is the project root. Other
// targets are looked up in the explicit modules table, then in the detected
// build layout, then as a directory of the same name under the project root.
// The resolved directory must exist.
func (r *Resolver) ModuleRoot(target string) (string, error) {
	if target == config.HostModule {
		return r.cfg.ProjectDir, nil
	}
	candidates := make([]string, 0, 3)
	if dir, ok := r.cfg.Modules[target]; ok {
		candidates = append(candidates, dir)
	}
	if dir, ok := r.layout.Modules[target]; ok {
		candidates = append(candidates, dir)
	}
	candidates = append(candidates, filepath.Join(r.cfg.ProjectDir, filepath.FromSlash(target)))

	for _, dir := range candidates {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, target)
}

// SourceDir returns <moduleRoot>/src/main/<language>/<packagePath>.
func (r *Resolver) SourceDir(target, packagePath string) (string, error) {
	root, err := r.ModuleRoot(target)
	if err != nil {
		return "", err
	}
	return r.sourceDirIn(root, packagePath), nil
}

// ResourcesDir returns <moduleRoot>/src/main/resources.
func (r *Resolver) ResourcesDir(target string) (string, error) {
	root, err := r.ModuleRoot(target)
	if err != nil {
		return "", err
	}
	return resourcesDirIn(root), nil
}

// Packages returns every package mapping in configuration order.
func (r *Resolver) Packages() []Entry {
	out := make([]Entry, 0, len(r.cfg.Packages))
	for _, p := range r.cfg.Packages {
		out = append(out, r.entry(PackageKind, p.Path, p.Module))
	}
	return out
}

// Resources returns every resource mapping in configuration order.
func (r *Resolver) Resources() []Entry {
	out := make([]Entry, 0, len(r.cfg.Resources))
	for _, res := range r.cfg.Resources {
		out = append(out, r.entry(ResourceKind, res.Name, res.Module))
	}
	return out
}

func (r *Resolver) entry(kind Kind, key, module string) Entry {
	dir, err := r.ModuleRoot(module)
	return Entry{Kind: kind, Key: key, Module: module, ModuleDir: dir, Err: err}
}

// ModulePath is the entry's location inside the module tree: the package
// source directory or the resource under src/main/resources.
func (r *Resolver) ModulePath(e Entry) string {
	if e.Kind == ResourceKind {
		return filepath.Join(resourcesDirIn(e.ModuleDir), filepath.FromSlash(e.Key))
	}
	return r.sourceDirIn(e.ModuleDir, e.Key)
}

// GeneratedPath is the entry's location inside the generated baseline.
func (r *Resolver) GeneratedPath(e Entry) string {
	return filepath.Join(r.cfg.GeneratedDir, filepath.FromSlash(e.Key))
}

// WorkspacePath is the entry's location relative to a workspace root:
// packages keep their natural path, resources live under the reserved
// namespace.
func WorkspacePath(e Entry) string {
	if e.Kind == ResourceKind {
		return filepath.Join(config.ResourceNamespace, filepath.FromSlash(e.Key))
	}
	return filepath.FromSlash(e.Key)
}

func (r *Resolver) sourceDirIn(root, packagePath string) string {
	return filepath.Join(root, "src", "main", r.cfg.Language, filepath.FromSlash(packagePath))
}

func resourcesDirIn(root string) string {
	return filepath.Join(root, "src", "main", "resources")
}
