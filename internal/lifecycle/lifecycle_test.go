package lifecycle

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decompile-patcher/internal/config"
	"decompile-patcher/internal/vcs"
)

const projectYAML = `
packages:
  - {path: dev/example/app, module: "."}
  - {path: dev/example/api, module: api}
resources:
  - {name: plugin.yml, module: "."}
  - {name: lang, module: api}
  - {name: icon.bin, module: "."}
`

type project struct {
	root string
	cfg  *config.Config
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0o755))
	cfg, err := config.Parse(root, []byte(projectYAML))
	require.NoError(t, err)
	return &project{root: root, cfg: cfg}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func (p *project) gen(rel string) string {
	return filepath.Join(p.cfg.GeneratedDir, filepath.FromSlash(rel))
}

func (p *project) src(module, rel string) string {
	return filepath.Join(p.root, module, "src", "main", "java", filepath.FromSlash(rel))
}

func (p *project) res(module, rel string) string {
	return filepath.Join(p.root, module, "src", "main", "resources", filepath.FromSlash(rel))
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

var binaryIcon = string([]byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02, 0xff})

// seed writes the same generated content into the baseline and the module
// tree, as a fresh distribute would.
func (p *project) seed(t *testing.T) {
	t.Helper()
	files := map[string]string{
		"dev/example/app/Main.java":     "package dev.example.app;\n\nclass Main {\n}\n",
		"dev/example/app/Util.java":     "package dev.example.app;\n\nclass Util {\n}\n",
		"dev/example/api/Api.java":      "package dev.example.api;\n\ninterface Api {\n}\n",
		"dev/example/app/sub/Deep.java": "package dev.example.app.sub;\n\nclass Deep {\n}\n",
	}
	for rel, body := range files {
		write(t, p.gen(rel), body)
		if filepath.Dir(rel) == "dev/example/api" {
			write(t, p.src("api", rel), body)
		} else {
			write(t, p.src("", rel), body)
		}
	}
	write(t, p.gen("plugin.yml"), "name: App\nversion: 1\n")
	write(t, p.res("", "plugin.yml"), "name: App\nversion: 1\n")
	write(t, p.gen("lang/en.yml"), "hello: Hello\n")
	write(t, p.res("api", "lang/en.yml"), "hello: Hello\n")
	write(t, p.gen("icon.bin"), binaryIcon)
	write(t, p.res("", "icon.bin"), binaryIcon)
}

// edit applies a representative set of hand edits to the module tree.
func (p *project) edit(t *testing.T) {
	t.Helper()
	write(t, p.src("", "dev/example/app/Main.java"), "package dev.example.app;\n\nclass Main {\n  void run() {}\n}\n")
	require.NoError(t, os.Remove(p.src("", "dev/example/app/Util.java")))
	write(t, p.src("", "dev/example/app/Added.java"), "package dev.example.app;\n\nclass Added {\n}\n")
	write(t, p.res("", "plugin.yml"), "name: App\nversion: 2\n")
	write(t, p.res("api", "lang/de.yml"), "hello: Hallo\n")
	write(t, p.res("", "icon.bin"), string([]byte{0x89, 'P', 'N', 'G', 0x00, 0x07}))
}

// reset puts the module tree back to the original generated content.
func (p *project) reset(t *testing.T) {
	t.Helper()
	require.NoError(t, os.RemoveAll(filepath.Join(p.root, "src")))
	require.NoError(t, os.RemoveAll(filepath.Join(p.root, "api", "src")))
	require.NoError(t, os.RemoveAll(p.cfg.GeneratedDir))
	p.seed(t)
}

func TestCreateRequiresName(t *testing.T) {
	p := newProject(t)
	called := false
	pt := New(p.cfg, func(string) vcs.Repo { called = true; return nil })

	_, err := pt.Create(context.Background(), "  ")
	require.ErrorIs(t, err, ErrPatchNameRequired)
	_, err = pt.Create(context.Background(), "../escape")
	require.ErrorIs(t, err, ErrInvalidPatchName)
	assert.False(t, called)
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
}

type missingTool struct{ vcs.Repo }

func (missingTool) Init(context.Context) error { return vcs.ErrToolUnavailable }

func TestToolUnavailableCleansUp(t *testing.T) {
	p := newProject(t)
	p.seed(t)
	pt := New(p.cfg, func(string) vcs.Repo { return missingTool{} })

	_, err := pt.Create(context.Background(), "x")
	require.ErrorIs(t, err, vcs.ErrToolUnavailable)
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
	assert.NoFileExists(t, p.cfg.PatchFile("x"))
}

func TestCreateNoChange(t *testing.T) {
	requireGit(t)
	p := newProject(t)
	p.seed(t)

	res, err := New(p.cfg, nil).Create(context.Background(), "noop")
	require.NoError(t, err)
	assert.Equal(t, NoChange, res.State)
	assert.NoFileExists(t, p.cfg.PatchFile("noop"))
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
}

func TestCreateThenApplyRoundTrip(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	p := newProject(t)
	p.seed(t)
	p.edit(t)

	pt := New(p.cfg, nil)
	created, err := pt.Create(ctx, "feature")
	require.NoError(t, err)
	require.Equal(t, Propagated, created.State)
	assert.Contains(t, created.DiffStat, "Main.java")
	assert.FileExists(t, p.cfg.PatchFile("feature"))
	assert.NoDirExists(t, p.cfg.WorkspaceDir)

	// The generated baseline now mirrors the edited module tree.
	assert.Equal(t, read(t, p.src("", "dev/example/app/Main.java")), read(t, p.gen("dev/example/app/Main.java")))
	assert.NoFileExists(t, p.gen("dev/example/app/Util.java"))
	assert.Equal(t, "hello: Hallo\n", read(t, p.gen("lang/de.yml")))

	// A second create over the now-synced trees records nothing.
	again, err := pt.Create(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, NoChange, again.State)

	p.reset(t)
	applied, err := pt.Apply(ctx, "feature")
	require.NoError(t, err)
	require.Nil(t, applied.Failure)
	require.True(t, applied.OK())
	assert.NoDirExists(t, p.cfg.WorkspaceDir)

	for _, tree := range []func(string) string{
		func(rel string) string { return p.src("", rel) },
		p.gen,
	} {
		assert.Equal(t, "package dev.example.app;\n\nclass Main {\n  void run() {}\n}\n", read(t, tree("dev/example/app/Main.java")))
		assert.NoFileExists(t, tree("dev/example/app/Util.java"))
		assert.FileExists(t, tree("dev/example/app/Added.java"))
		assert.FileExists(t, tree("dev/example/app/sub/Deep.java"))
	}
	assert.Equal(t, "name: App\nversion: 2\n", read(t, p.res("", "plugin.yml")))
	assert.Equal(t, "hello: Hallo\n", read(t, p.res("api", "lang/de.yml")))
	assert.Equal(t, "hello: Hello\n", read(t, p.res("api", "lang/en.yml")))
	assert.Equal(t, string([]byte{0x89, 'P', 'N', 'G', 0x00, 0x07}), read(t, p.res("", "icon.bin")))
	assert.Equal(t, read(t, p.res("", "icon.bin")), read(t, p.gen("icon.bin")))
}

// isolateGitConfig points git's user-level config at a temp home that
// ignores *.bin globally and *.yml through the XDG ignore file.
func isolateGitConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	excludes := filepath.Join(home, "global-ignore")
	write(t, excludes, "*.bin\n")
	write(t, filepath.Join(home, ".gitconfig"), "[core]\n\texcludesFile = "+filepath.ToSlash(excludes)+"\n")
	write(t, filepath.Join(home, ".config", "git", "ignore"), "*.yml\n")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}

func TestCreateRecordsFilesMatchedByIgnoreRules(t *testing.T) {
	requireGit(t)
	isolateGitConfig(t)
	ctx := context.Background()
	p := newProject(t)
	p.seed(t)
	ignoreLang := func() {
		write(t, p.gen("lang/.gitignore"), "de.yml\n")
		write(t, p.res("api", "lang/.gitignore"), "de.yml\n")
	}
	ignoreLang()

	edited := string([]byte{0x89, 'P', 'N', 'G', 0x00, 0x09})
	write(t, p.res("", "icon.bin"), edited)
	write(t, p.res("api", "lang/de.yml"), "hello: Hallo\n")

	pt := New(p.cfg, nil)
	created, err := pt.Create(ctx, "ignored")
	require.NoError(t, err)
	require.Equal(t, Propagated, created.State)
	body := read(t, p.cfg.PatchFile("ignored"))
	assert.Contains(t, body, "icon.bin")
	assert.Contains(t, body, "lang/de.yml")

	p.reset(t)
	ignoreLang()
	applied, err := pt.Apply(ctx, "ignored")
	require.NoError(t, err)
	require.True(t, applied.OK())
	assert.Equal(t, edited, read(t, p.res("", "icon.bin")))
	assert.Equal(t, "hello: Hallo\n", read(t, p.res("api", "lang/de.yml")))
	assert.Equal(t, edited, read(t, p.gen("icon.bin")))
}

func TestCreateWholePackageDeletion(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	p := newProject(t)
	p.seed(t)
	require.NoError(t, os.RemoveAll(p.src("api", "dev/example/api")))

	res, err := New(p.cfg, nil).Create(ctx, "drop-api")
	require.NoError(t, err)
	assert.Equal(t, Propagated, res.State)
	assert.NoDirExists(t, p.gen("dev/example/api"))
	assert.Contains(t, read(t, p.cfg.PatchFile("drop-api")), "deleted file mode")
}

func TestApplyMissingPatchListsAvailable(t *testing.T) {
	p := newProject(t)
	write(t, p.cfg.PatchFile("one"), "")
	write(t, p.cfg.PatchFile("two"), "")

	_, err := New(p.cfg, nil).Apply(context.Background(), "three")
	require.ErrorIs(t, err, ErrPatchNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"one", "two"}, nf.Available)
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
}

const conflictingPatch = `diff --git a/dev/example/app/Main.java b/dev/example/app/Main.java
--- a/dev/example/app/Main.java
+++ b/dev/example/app/Main.java
@@ -1,4 +1,4 @@
 package dev.example.app;

-class Nothing {
+class Else {
 }
`

func TestApplyConflictLeavesTreesUntouched(t *testing.T) {
	requireGit(t)
	p := newProject(t)
	p.seed(t)
	write(t, p.cfg.PatchFile("bad"), conflictingPatch)

	before := read(t, p.src("", "dev/example/app/Main.java"))
	res, err := New(p.cfg, nil).Apply(context.Background(), "bad")
	require.NoError(t, err)
	require.NotNil(t, res.Failure)
	assert.NotZero(t, res.Failure.ExitCode)
	assert.NotEmpty(t, res.Failure.Output)
	assert.Equal(t, BaselineCommitted, res.State)
	assert.False(t, res.OK())

	assert.Equal(t, before, read(t, p.src("", "dev/example/app/Main.java")))
	assert.Equal(t, before, read(t, p.gen("dev/example/app/Main.java")))
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
}

const addingPatch = `diff --git a/dev/example/app/Later.java b/dev/example/app/Later.java
new file mode 100644
--- /dev/null
+++ b/dev/example/app/Later.java
@@ -0,0 +1 @@
+class Later {}
`

func TestApplyAllPartialSuccess(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	p := newProject(t)
	p.seed(t)
	p.edit(t)
	pt := New(p.cfg, nil)

	_, err := pt.Create(ctx, "01-good")
	require.NoError(t, err)
	write(t, p.cfg.PatchFile("02-bad"), conflictingPatch)
	write(t, p.cfg.PatchFile("03-later"), addingPatch)
	write(t, filepath.Join(p.cfg.PatchesDir, "README.md"), "not a patch")
	p.reset(t)

	batch, err := pt.ApplyAll(ctx)
	require.NoError(t, err)
	require.Len(t, batch.Outcomes, 3)
	assert.Equal(t, 2, batch.Succeeded())
	assert.Equal(t, []string{"02-bad"}, batch.Failed())
	assert.Equal(t, []string{"01-good", "02-bad", "03-later"},
		[]string{batch.Outcomes[0].Name, batch.Outcomes[1].Name, batch.Outcomes[2].Name})
	assert.NotNil(t, batch.Outcomes[1].Result.Failure)
	assert.True(t, batch.Outcomes[2].OK())

	// Patches on either side of the failure stay applied.
	assert.FileExists(t, p.src("", "dev/example/app/Added.java"))
	assert.Equal(t, "class Later {}\n", read(t, p.src("", "dev/example/app/Later.java")))
	assert.Equal(t, "class Later {}\n", read(t, p.gen("dev/example/app/Later.java")))
	assert.NoDirExists(t, p.cfg.WorkspaceDir)
}

func TestApplyAllWithoutPatches(t *testing.T) {
	p := newProject(t)
	_, err := New(p.cfg, nil).ApplyAll(context.Background())
	require.ErrorIs(t, err, ErrNoPatches)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "no-change", NoChange.String())
	assert.Equal(t, "propagated", Propagated.String())
	assert.Equal(t, "unknown", State(99).String())
}
