package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

var structValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a configuration before directories are resolved:
//
//   - required fields are present (struct tags)
//   - package paths and resource names are relative, slash separated and
//     free of ".." segments
//   - keys are unique within their collection
//   - package paths do not start with the reserved resource namespace
//   - every module target is either "." or a non-empty identifier
//   - workspace_dir, which is wiped on every run, does not overlap the
//     project root, generated_dir, patches_dir or a module root
//
// All problems are reported at once in a single error wrapping ErrInvalid.
func Validate(c Config) error {
	var errs errlist

	if err := structValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs.add("%s: failed %q constraint", fe.Namespace(), fe.Tag())
			}
		} else {
			errs.add("%v", err)
		}
	}

	for _, ext := range c.SourceExtensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			errs.add("source_extensions: %q must start with '.'", ext)
		}
	}

	seenPkg := make(map[string]struct{}, len(c.Packages))
	for i, p := range c.Packages {
		prefix := fmt.Sprintf("packages[%d] (%s)", i, p.Path)
		checkKey(&errs, prefix, p.Path)
		checkModule(&errs, prefix, p.Module)
		if p.Path == ResourceNamespace || strings.HasPrefix(p.Path, ResourceNamespace+"/") {
			errs.add("%s: %q is reserved for resources", prefix, ResourceNamespace)
		}
		if _, dup := seenPkg[p.Path]; dup {
			errs.add("%s: duplicate package path %q", prefix, p.Path)
		} else if p.Path != "" {
			seenPkg[p.Path] = struct{}{}
		}
	}

	seenRes := make(map[string]struct{}, len(c.Resources))
	for i, r := range c.Resources {
		prefix := fmt.Sprintf("resources[%d] (%s)", i, r.Name)
		checkKey(&errs, prefix, r.Name)
		checkModule(&errs, prefix, r.Module)
		if _, dup := seenRes[r.Name]; dup {
			errs.add("%s: duplicate resource name %q", prefix, r.Name)
		} else if r.Name != "" {
			seenRes[r.Name] = struct{}{}
		}
	}

	for name, dir := range c.Modules {
		if strings.TrimSpace(name) == "" || name == HostModule {
			errs.add("modules: invalid module name %q", name)
		}
		if strings.TrimSpace(dir) == "" {
			errs.add("modules[%s]: directory must be non-empty", name)
		}
	}

	checkWorkspace(&errs, c)

	return errs.err()
}

func checkWorkspace(errs *errlist, c Config) {
	if strings.TrimSpace(c.WorkspaceDir) == "" {
		return
	}
	ws := c.abs(c.WorkspaceDir)
	guard := func(label, dir string, rejectInside bool) {
		if dir == "" {
			return
		}
		switch {
		case within(ws, dir):
			errs.add("workspace_dir: %s would delete %s", c.WorkspaceDir, label)
		case rejectInside && within(dir, ws):
			errs.add("workspace_dir: %s must not be inside %s", c.WorkspaceDir, label)
		}
	}
	guard("the project root", filepath.Clean(c.ProjectDir), false)
	if c.GeneratedDir != "" {
		guard("generated_dir", c.abs(c.GeneratedDir), true)
	}
	if c.PatchesDir != "" {
		guard("patches_dir", c.abs(c.PatchesDir), true)
	}
	for name, dir := range c.Modules {
		if strings.TrimSpace(dir) != "" {
			guard("module "+name, c.abs(dir), false)
		}
	}
}

// within reports whether child is dir or lies below it.
func within(dir, child string) bool {
	rel, err := filepath.Rel(dir, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func checkKey(errs *errlist, prefix, key string) {
	if key == "" {
		return // reported by the struct validator
	}
	if filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		errs.add("%s: must be relative, got %q", prefix, key)
	}
	if strings.Contains(key, `\`) {
		errs.add("%s: must use forward slashes ('/'), found backslash", prefix)
	}
	if hasDotDot(key) {
		errs.add("%s: must not contain '..' segments", prefix)
	}
	if path.Clean(key) != key || key == "." {
		errs.add("%s: must be a clean path, got %q", prefix, key)
	}
}

func checkModule(errs *errlist, prefix, module string) {
	if module == "" {
		return
	}
	if strings.TrimSpace(module) != module {
		errs.add("%s: module target %q has surrounding whitespace", prefix, module)
	}
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if len(e.msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(e.msgs, "\n  "))
}
