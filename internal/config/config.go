// Package config loads and validates the patcher configuration file.
//
// The file is YAML (default "patcher.yaml" in the project root) and enumerates
// exactly what the patch workflow needs:
//   - the generated-baseline cache root and the patches directory
//   - package mappings (package path -> module target)
//   - resource mappings (resource name -> module target)
//   - optional explicit sub-module roots
//
// Relative directories are resolved against the project root at load time, so
// the rest of the program only ever sees absolute paths.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up in the project root when no explicit path is given.
	DefaultFileName = "patcher.yaml"

	// HostModule is the module target that denotes the project itself.
	HostModule = "."

	// ResourceNamespace is the workspace subdirectory that holds resources,
	// kept apart from package paths.
	ResourceNamespace = "__resources__"

	defaultGeneratedDir = "sources/generated"
	defaultPatchesDir   = "patches"
	defaultWorkspaceDir = ".patch-git"
	defaultLanguage     = "java"
	defaultIdentityName = "Patcher"
	defaultIdentityMail = "patch@local"
)

// PackageMapping associates a generated package path (slash separated,
// e.g. "dev/example/app") with a module target.
type PackageMapping struct {
	Path   string `yaml:"path" validate:"required"`
	Module string `yaml:"module" validate:"required"`
}

// ResourceMapping associates a root-level generated resource (file or
// directory) with a module target.
type ResourceMapping struct {
	Name   string `yaml:"name" validate:"required"`
	Module string `yaml:"module" validate:"required"`
}

// Identity is the commit author used inside the scratch workspace.
type Identity struct {
	Name  string `yaml:"name" validate:"required"`
	Email string `yaml:"email" validate:"required"`
}

// Config is the validated configuration. Directory fields are absolute after Load.
type Config struct {
	// ProjectDir is the hosting project root. Not read from the file.
	ProjectDir string `yaml:"-"`

	InputArchive     string            `yaml:"input_archive"`
	GeneratedDir     string            `yaml:"generated_dir" validate:"required"`
	PatchesDir       string            `yaml:"patches_dir" validate:"required"`
	WorkspaceDir     string            `yaml:"workspace_dir" validate:"required"`
	Language         string            `yaml:"language" validate:"required"`
	SourceExtensions []string          `yaml:"source_extensions" validate:"required,min=1,dive,required"`
	Identity         Identity          `yaml:"identity"`
	Modules          map[string]string `yaml:"modules"`
	Packages         []PackageMapping  `yaml:"packages" validate:"dive"`
	Resources        []ResourceMapping `yaml:"resources" validate:"dive"`
}

// Default returns a configuration with every optional field filled in.
func Default(projectDir string) Config {
	return Config{
		ProjectDir:       projectDir,
		GeneratedDir:     defaultGeneratedDir,
		PatchesDir:       defaultPatchesDir,
		WorkspaceDir:     defaultWorkspaceDir,
		Language:         defaultLanguage,
		SourceExtensions: []string{".java"},
		Identity:         Identity{Name: defaultIdentityName, Email: defaultIdentityMail},
	}
}

// Load reads the configuration at path (or <projectDir>/patcher.yaml when
// path is empty), applies defaults, validates it and resolves directories.
func Load(projectDir, path string) (*Config, error) {
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	if path == "" {
		path = filepath.Join(absProject, DefaultFileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(absProject, data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of Default(projectDir), validates the result
// and resolves relative directories against projectDir.
func Parse(projectDir string, data []byte) (*Config, error) {
	cfg := Default(projectDir)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	cfg.ProjectDir = projectDir
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	cfg.resolve()
	return &cfg, nil
}

func (c *Config) resolve() {
	c.GeneratedDir = c.abs(c.GeneratedDir)
	c.PatchesDir = c.abs(c.PatchesDir)
	c.WorkspaceDir = c.abs(c.WorkspaceDir)
	if c.InputArchive != "" {
		c.InputArchive = c.abs(c.InputArchive)
	}
	for name, dir := range c.Modules {
		c.Modules[name] = c.abs(dir)
	}
}

func (c *Config) abs(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectDir, p)
}

// PatchFile returns the path of the named patch inside the patches directory.
func (c *Config) PatchFile(name string) string {
	return filepath.Join(c.PatchesDir, name+PatchExt)
}

// PatchExt is the file extension of patch files.
const PatchExt = ".patch"

// PatchNames lists the patches in the patches directory, sorted ascending by
// file name. A missing directory has no patches.
func (c *Config) PatchNames() ([]string, error) {
	entries, err := os.ReadDir(c.PatchesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read patches dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != PatchExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), PatchExt))
	}
	sort.Strings(names)
	return names, nil
}
