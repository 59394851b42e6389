package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decompile-patcher/internal/config"
)

func newConfig(t *testing.T, root, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(root, []byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestModuleRootHostProject(t *testing.T) {
	root := t.TempDir()
	r := New(newConfig(t, root, ""))
	dir, err := r.ModuleRoot(".")
	require.NoError(t, err)
	assert.Equal(t, root, dir)
}

func TestModuleRootResolutionOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "custom", "api"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "core", "impl"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.gradle.kts"),
		[]byte(`include(":core:impl")`+"\n"), 0o644))

	r := New(newConfig(t, root, "modules:\n  api: custom/api\n"))

	dir, err := r.ModuleRoot("api")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "custom", "api"), dir)

	dir, err = r.ModuleRoot("core:impl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "core", "impl"), dir)

	dir, err = r.ModuleRoot("plain")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "plain"), dir)

	_, err = r.ModuleRoot("missing")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestSourceAndResourceDirs(t *testing.T) {
	root := t.TempDir()
	r := New(newConfig(t, root, "language: kotlin\n"))

	src, err := r.SourceDir(".", "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main", "kotlin", "a", "b", "c"), src)

	res, err := r.ResourcesDir(".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main", "resources"), res)

	_, err = r.SourceDir("nope", "a")
	require.ErrorIs(t, err, ErrModuleNotFound)
	_, err = r.ResourcesDir("nope")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestEntriesKeepOrderAndReportUnresolved(t *testing.T) {
	root := t.TempDir()
	r := New(newConfig(t, root, `
packages:
  - {path: z/pkg, module: "."}
  - {path: a/pkg, module: ghost}
resources:
  - {name: plugin.yml, module: "."}
  - {name: lang, module: "."}
`))

	pkgs := r.Packages()
	require.Len(t, pkgs, 2)
	assert.Equal(t, "z/pkg", pkgs[0].Key)
	assert.NoError(t, pkgs[0].Err)
	assert.Equal(t, filepath.Join(root, "src", "main", "java", "z", "pkg"), r.ModulePath(pkgs[0]))
	assert.Equal(t, filepath.Join(root, "sources", "generated", "z", "pkg"), r.GeneratedPath(pkgs[0]))
	assert.Equal(t, filepath.Join("z", "pkg"), WorkspacePath(pkgs[0]))
	assert.ErrorIs(t, pkgs[1].Err, ErrModuleNotFound)

	res := r.Resources()
	require.Len(t, res, 2)
	assert.Equal(t, ResourceKind, res[0].Kind)
	assert.Equal(t, filepath.Join(root, "src", "main", "resources", "plugin.yml"), r.ModulePath(res[0]))
	assert.Equal(t, filepath.Join("__resources__", "lang"), WorkspacePath(res[1]))
}
